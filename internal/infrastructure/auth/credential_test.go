package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamgate/internal/shared/errors"
)

func TestParseCredential(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantTag   string
		wantToken string
		wantErr   bool
	}{
		{
			name:      "tag and token",
			raw:       "AmazonOAuth2 Atza|token-value",
			wantTag:   "AmazonOAuth2",
			wantToken: "Atza|token-value",
		},
		{
			name:      "surrounding whitespace trimmed",
			raw:       "  GoogleOAuth2   ya29.token  ",
			wantTag:   "GoogleOAuth2",
			wantToken: "ya29.token",
		},
		{
			name:      "tab separator",
			raw:       "FacebookOAuth2\tEAAtoken",
			wantTag:   "FacebookOAuth2",
			wantToken: "EAAtoken",
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "whitespace only",
			raw:     "   ",
			wantErr: true,
		},
		{
			name:    "tag without token",
			raw:     "AmazonOAuth2",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, token, err := ParseCredential(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				authErr := errors.GetAuthorizationError(err)
				require.NotNil(t, authErr)
				assert.Equal(t, errors.ErrorTypeMalformedCredential, authErr.Type)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTag, tag)
			assert.Equal(t, tt.wantToken, token)
		})
	}
}
