package member

type GetProfileResponse struct {
	ID          uint32          `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	PhoneNumber string          `json:"phoneNumber,omitempty"`
	Role        string          `json:"role"`
	Activity    ProfileActivity `json:"activity"`
}

// ProfileActivity summarizes what the member did as an author and as a requester
type ProfileActivity struct {
	Letters              int64 `json:"letters"`
	PhysicalRequests     int64 `json:"physicalRequests"`
	LivePhysicalRequests int64 `json:"livePhysicalRequests"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=USER ADMIN"`
}
