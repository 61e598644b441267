package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateConfigAcceptsMinimalDocument(t *testing.T) {
	err := ValidateConfig(strings.NewReader(`{"rootName": "test"}`))
	assert.NoError(t, err)
}

func TestValidateConfigRejectsMissingRootName(t *testing.T) {
	err := ValidateConfig(strings.NewReader(`{"cliAddr": ":1998"}`))
	assert.Error(t, err)
}

func TestValidateConfigRejectsUnknownField(t *testing.T) {
	err := ValidateConfig(strings.NewReader(`{"rootName": "test", "bogus": 1}`))
	assert.Error(t, err)
}

func TestValidateConfigRejectsBadAuthenticatorName(t *testing.T) {
	err := ValidateConfig(strings.NewReader(`{"rootName": "test", "authenticator": "oauth"}`))
	assert.Error(t, err)
}
