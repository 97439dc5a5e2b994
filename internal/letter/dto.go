package letter

type CreateLetterRequest struct {
	Title                   string `json:"title" binding:"required,min=1,max=200"`
	Type                    string `json:"type" binding:"omitempty,oneof=letter story"`
	AllowPhysicalRequests   bool   `json:"allowPhysicalRequests"`
	AutoApprove             bool   `json:"autoApprove"`
	MaxRequestsPerPerson    int    `json:"maxRequestsPerPerson" binding:"omitempty,min=1,max=100"`
	MaxRecipientsPerRequest int    `json:"maxRecipientsPerRequest" binding:"omitempty,min=1,max=100"`
}

// UpdatePhysicalSettingsRequest uses pointers so omitted fields stay unchanged
type UpdatePhysicalSettingsRequest struct {
	AllowPhysicalRequests   *bool `json:"allowPhysicalRequests"`
	AutoApprove             *bool `json:"autoApprove"`
	MaxRequestsPerPerson    *int  `json:"maxRequestsPerPerson" binding:"omitempty,min=1,max=100"`
	MaxRecipientsPerRequest *int  `json:"maxRecipientsPerRequest" binding:"omitempty,min=1,max=100"`
}

type PhysicalSettings struct {
	AllowPhysicalRequests   bool `json:"allowPhysicalRequests"`
	AutoApprove             bool `json:"autoApprove"`
	MaxRequestsPerPerson    int  `json:"maxRequestsPerPerson"`
	MaxRecipientsPerRequest int  `json:"maxRecipientsPerRequest"`
}

type LetterResponse struct {
	ID               uint32           `json:"id"`
	AuthorID         uint32           `json:"authorId"`
	Title            string           `json:"title"`
	Type             string           `json:"type"`
	PhysicalSettings PhysicalSettings `json:"physicalSettings"`
	Counters         Counters         `json:"counters"`
}
