package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// TransactionID identifies a transaction either by a client-generated token
// (not yet acknowledged by the backend) or by the backend's integer id.
type TransactionID struct {
	local  string
	remote int64
}

// NewLocalID returns a fresh client-generated id.
func NewLocalID() TransactionID {
	return TransactionID{local: uuid.NewString()}
}

// LocalID wraps an existing client token.
func LocalID(token string) TransactionID {
	return TransactionID{local: token}
}

// RemoteID wraps a backend-assigned id.
func RemoteID(id int64) TransactionID {
	return TransactionID{remote: id}
}

// ParseID converts a textual id into a TransactionID. Integers become remote ids.
func ParseID(s string) TransactionID {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return RemoteID(n)
	}
	return LocalID(s)
}

// Remote returns the backend id and true if the id was assigned by the backend.
func (id TransactionID) Remote() (int64, bool) {
	return id.remote, id.local == "" && id.remote != 0
}

// IsLocal reports whether the id is a client-generated token.
func (id TransactionID) IsLocal() bool {
	return id.local != ""
}

// IsZero reports whether the id is unset.
func (id TransactionID) IsZero() bool {
	return id.local == "" && id.remote == 0
}

func (id TransactionID) String() string {
	if id.local != "" {
		return id.local
	}
	return strconv.FormatInt(id.remote, 10)
}

func (id TransactionID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	if id.IsLocal() {
		return json.Marshal(id.local)
	}
	return []byte(strconv.FormatInt(id.remote, 10)), nil
}

func (id *TransactionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = TransactionID{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to decode transaction id: %w", err)
		}
		*id = ParseID(s)
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid transaction id %s: %w", data, err)
	}
	*id = RemoteID(n)
	return nil
}

// ServerID is an optional backend id that may arrive as a JSON number or string.
type ServerID string

func (s *ServerID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
	case len(data) > 0 && data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = ServerID(v)
	default:
		*s = ServerID(data)
	}
	return nil
}
