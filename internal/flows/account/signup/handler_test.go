package signup

import (
	"net/http"
	"testing"

	"marketplace-gateway/internal/flows/flowstest"
	"marketplace-gateway/internal/models"
	"marketplace-gateway/internal/registration"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signupValues() map[string]interface{} {
	return map[string]interface{}{
		"username":         "nena.store",
		"email":            "nena@example.com",
		"password":         "s3cret-pass",
		"confirm_password": "s3cret-pass",
	}
}

func TestGetRuleSet(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value string
		want  string
	}{
		{"short username", "username", "ab", "Username must be at least 3 characters"},
		{"username symbols", "username", "nena store!", "Username may only contain letters, numbers, dots and underscores"},
		{"mismatch", "confirm_password", "other-pass", "Passwords do not match"},
		{"missing email", "email", "", "Email is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := signupValues()
			values[tt.field] = tt.value
			assert.Equal(t, tt.want, GetRuleSet(8).Validate(values)[tt.field])
		})
	}
}

func TestFlow_StartsSellerWizard(t *testing.T) {
	h := flowstest.New(t, flowstest.JSON(http.StatusCreated, `{"success":true,"data":{"userId":"u-7"}}`))
	srv := h.Mount(NewFlow(DefaultConfig()))
	cookie := h.NewSession("s1", nil)

	rec := h.Post(srv, Route, cookie, signupValues())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := flowstest.Decode(t, rec)
	assert.Equal(t, "/seller/create-shop", resp.Redirect)
	assert.NotContains(t, resp.Values, "password")

	sess := h.Session("s1")
	assert.Equal(t, "u-7", sess.UserID())
	assert.Equal(t, models.RoleSeller, sess.Role())
	assert.Equal(t, registration.SellerFlow.Marker(registration.StageShopDetails), sess.Get(models.SessionRegistrationStage))
}

func TestFlow_NewVisitorGetsSessionCookie(t *testing.T) {
	h := flowstest.New(t, flowstest.JSON(http.StatusCreated, `{"success":true,"data":{"userId":"u-8"}}`))
	srv := h.Mount(NewFlow(DefaultConfig()))

	rec := h.Post(srv, Route, nil, signupValues())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sessionID string
	for _, c := range rec.Result().Cookies() {
		if c.Name == flowstest.CookieName {
			sessionID = c.Value
		}
	}
	require.NotEmpty(t, sessionID)
	assert.Equal(t, "u-8", h.Session(sessionID).UserID())
}
