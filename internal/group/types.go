// Copyright (c) 2024 Netskope, Inc. All rights reserved.

package group

// Member is one participant listed in a group's group_info.json.
type Member struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	UserType string `json:"user_type"`
}

// AttachedFile is a file referenced by a message.
type AttachedFile struct {
	OriginalName string `json:"original_name"`
	ExportName   string `json:"export_name"`
}

// Message is one entry in a group's messages.json.
// CreatedDate is kept as exported; its format depends on the export locale.
type Message struct {
	Creator       Member         `json:"creator"`
	CreatedDate   string         `json:"created_date"`
	Text          string         `json:"text,omitempty"`
	TopicID       string         `json:"topic_id,omitempty"`
	AttachedFiles []AttachedFile `json:"attached_files,omitempty"`
}

// Record is the extracted data of one group folder. It is not modified after extraction.
type Record struct {
	Name     string    `json:"name"`
	Folder   string    `json:"folder"`
	Members  []Member  `json:"members"`
	Messages []Message `json:"messages"`
}

// Collection is the ordered result of one aggregation pass.
type Collection []*Record

// Names returns the group names in collection order.
func (c Collection) Names() []string {
	names := make([]string, len(c))
	for i, rec := range c {
		names[i] = rec.Name
	}
	return names
}

// MessageCount returns the total number of messages across all groups.
func (c Collection) MessageCount() int {
	total := 0
	for _, rec := range c {
		total += len(rec.Messages)
	}
	return total
}
