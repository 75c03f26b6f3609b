package upstream

import (
	"net/http"
	"strings"

	"marketplace-gateway/internal/models"
)

// Header names the marketplace API reads in place of bearer tokens.
const (
	HeaderUserID = "X-User-Id"
	HeaderShopID = "X-Shop-Id"
)

// Identity is what the gateway forwards on behalf of a browser.
type Identity struct {
	UserID string
	ShopID string
	// Cookie is the browser's Cookie header minus the gateway's own session cookie.
	Cookie string
}

// IdentityFrom builds the forwarded identity for a request and its session.
func IdentityFrom(r *http.Request, sess *models.Session, gatewayCookie string) Identity {
	ident := Identity{}
	if sess != nil {
		ident.UserID = sess.UserID()
		ident.ShopID = sess.ShopID()
	}

	var parts []string
	for _, c := range r.Cookies() {
		if c.Name == gatewayCookie {
			continue
		}
		parts = append(parts, c.Name+"="+c.Value)
	}
	ident.Cookie = strings.Join(parts, "; ")
	return ident
}

func (i Identity) apply(req *http.Request) {
	if i.UserID != "" {
		req.Header.Set(HeaderUserID, i.UserID)
	}
	if i.ShopID != "" {
		req.Header.Set(HeaderShopID, i.ShopID)
	}
	if i.Cookie != "" {
		req.Header.Set("Cookie", i.Cookie)
	}
}
