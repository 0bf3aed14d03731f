package sensor

// FeedItem is one room's reading from the gateway feed.
type FeedItem struct {
	RoomID    string `json:"roomId"`
	Name      string `json:"name"`
	Building  string `json:"building"`
	Capacity  int    `json:"capacity"`
	Occupancy int    `json:"occupancy"`
	Reserved  bool   `json:"reserved"`
}

// FeedResponse models the top-level structure of the gateway's response.
type FeedResponse struct {
	Code int `json:"code"`
	Data struct {
		Total int        `json:"total"`
		Items []FeedItem `json:"items"`
	} `json:"data"`
}
