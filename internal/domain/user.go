// Package domain defines the data structures shared by the server and the
// headless client: committed paths and room member metadata.
package domain

// UserInfo is the display metadata of one room member.
type UserInfo struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Color    string `json:"color"`
	JoinedAt int64  `json:"joinedAt"` // unix milliseconds
}
