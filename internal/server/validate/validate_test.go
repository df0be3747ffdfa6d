package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginBody struct {
	UserName string `json:"username" validate:"required,max=32"`
	Password string `json:"encryptedPasswordHex" validate:"required,hexadecimal"`
	Code     string `json:"code" validate:"omitempty,len=6,numeric"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name       string
		body       loginBody
		wantFields []string
		category   Category
	}{
		{name: "valid", body: loginBody{UserName: "alice", Password: "abcd", Code: "123456"}},
		{name: "missing both", body: loginBody{}, wantFields: []string{"username", "encryptedPasswordHex"}, category: CategoryMissing},
		{
			name:       "too long and not hex",
			body:       loginBody{UserName: string(make([]byte, 33)), Password: "xyz"},
			wantFields: []string{"username", "encryptedPasswordHex"},
			category:   CategoryLength,
		},
		{name: "code not numeric", body: loginBody{UserName: "a", Password: "ab", Code: "12345a"}, wantFields: []string{"code"}, category: CategoryType},
		{name: "code short", body: loginBody{UserName: "a", Password: "ab", Code: "123"}, wantFields: []string{"code"}, category: CategoryLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.body)
			if tt.wantFields == nil {
				require.NoError(t, err)
				return
			}

			var verr *Error
			require.True(t, errors.As(err, &verr), "want *Error, got %T", err)

			fields := make([]string, 0, len(verr.Violations))
			for _, v := range verr.Violations {
				fields = append(fields, v.Field)
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
			assert.Equal(t, tt.category, verr.Category())
			assert.Contains(t, verr.Error(), "invalid request: ")
		})
	}
}
