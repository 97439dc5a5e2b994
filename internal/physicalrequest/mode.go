package physicalrequest

import (
	"github.com/changhyeonkim/letter-press/go-api-server/internal/config"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/model"
)

// WorkflowMode is the per-letter parameterization of the request engine
type WorkflowMode struct {
	RequiresApproval bool
	MaxPerPerson     int
	MaxRecipients    int
}

func ModeOf(l *model.Letter, policy config.PhysicalConfig) WorkflowMode {
	mode := WorkflowMode{
		RequiresApproval: !l.AutoApprove,
		MaxPerPerson:     l.MaxRequestsPerPerson,
		MaxRecipients:    l.MaxRecipientsPerRequest,
	}
	if mode.MaxPerPerson < 1 {
		mode.MaxPerPerson = policy.DefaultMaxPerPerson
	}
	if mode.MaxRecipients < 1 {
		mode.MaxRecipients = 1
	}
	if policy.MaxRecipientsPerRequest > 0 && mode.MaxRecipients > policy.MaxRecipientsPerRequest {
		mode.MaxRecipients = policy.MaxRecipientsPerRequest
	}
	return mode
}

func (m WorkflowMode) MultiRecipient() bool {
	return m.MaxRecipients > 1
}
