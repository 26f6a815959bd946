package bookreview

import (
	"bytes"
	"encoding/json"
)

// ID is a review identifier. The service has been seen to send both
// string and numeric ids, so either form decodes.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// User is the signed-in account. Each fetch replaces the whole record.
type User struct {
	ID      ID     `json:"id,omitempty"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IconURL string `json:"iconUrl,omitempty"`
}

// Book is a single review as returned by the list and detail endpoints.
type Book struct {
	ID         ID     `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Review     string `json:"review,omitempty"`
	Reviewer   string `json:"reviewer,omitempty"`
	ReviewerID ID     `json:"reviewerId,omitempty"`

	// IsMine is nil when the server did not send a boolean.
	IsMine *bool `json:"isMine,omitempty"`
}

// UnmarshalJSON tolerates a non-boolean isMine by leaving it unset.
func (b *Book) UnmarshalJSON(data []byte) error {
	type plain Book
	var aux struct {
		plain
		IsMine json.RawMessage `json:"isMine"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*b = Book(aux.plain)
	b.IsMine = nil
	switch string(bytes.TrimSpace(aux.IsMine)) {
	case "true":
		mine := true
		b.IsMine = &mine
	case "false":
		mine := false
		b.IsMine = &mine
	}
	return nil
}

// OwnedBy reports whether the review belongs to user. A server-supplied
// isMine always wins; otherwise the reviewer id, then the display name,
// is compared against the user.
func (b Book) OwnedBy(user *User) bool {
	if b.IsMine != nil {
		return *b.IsMine
	}
	if user == nil {
		return false
	}
	if b.ReviewerID != "" && user.ID != "" {
		return b.ReviewerID == user.ID
	}
	return b.Reviewer != "" && b.Reviewer == user.Name
}

// BookInput is the request body for create and update.
type BookInput struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Detail string `json:"detail"`
	Review string `json:"review"`
}

type credentialsRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type updateUserRequest struct {
	Name string `json:"name"`
}

type uploadResponse struct {
	IconURL       string `json:"iconUrl"`
	LegacyIconURL string `json:"iconurl"`
}

type viewLogRequest struct {
	SelectBookID ID `json:"selectBookId"`
}
