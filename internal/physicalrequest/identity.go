package physicalrequest

import (
	"crypto/subtle"
	"strconv"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/model"
)

// RequesterIdentity is either an authenticated account or an anonymous browser session.
type RequesterIdentity interface {
	// Type is the value stored in requester_type
	Type() string
	// Key is the value stored in requester_key and used for rate limiting
	Key() string
	// Owns reports whether the request was created by this identity
	Owns(request *model.PhysicalRequest) bool
}

type AccountIdentity struct {
	MemberID uint32
}

func (a AccountIdentity) Type() string {
	return model.RequesterTypeAccount
}

func (a AccountIdentity) Key() string {
	return strconv.FormatUint(uint64(a.MemberID), 10)
}

func (a AccountIdentity) Owns(request *model.PhysicalRequest) bool {
	return request.RequesterType == model.RequesterTypeAccount && request.RequesterKey == a.Key()
}

// SessionIdentity carries the opaque session token plus the keyed hash of the client IP.
// The raw IP is never held here.
type SessionIdentity struct {
	Token     string
	HashedIP  string
	UserAgent string
}

func (s SessionIdentity) Type() string {
	return model.RequesterTypeSession
}

func (s SessionIdentity) Key() string {
	return s.Token
}

func (s SessionIdentity) Owns(request *model.PhysicalRequest) bool {
	if request.RequesterType != model.RequesterTypeSession || s.Token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(request.RequesterKey), []byte(s.Token)) == 1
}
