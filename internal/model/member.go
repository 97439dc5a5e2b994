package model

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Member represents a user in the system
// Oracle sequence MEMBER_SEQ is used for ID generation
type Member struct {
	// Primary key - Oracle IDENTITY (auto-increment)
	ID uint32 `gorm:"column:id;primaryKey;autoIncrement"`

	// Core fields
	Email       string `gorm:"column:email;size:255;not null;uniqueIndex:idx_member_email"` // 이메일 (unique)
	Name        string `gorm:"column:name;size:100;not null"`                               // 이름
	PhoneNumber string `gorm:"column:phone_number;size:100;not null"`                       // 핸드폰 번호
	Password    string `gorm:"column:password;size:60;not null"`                            // 암호화된 비밀번호
	Role        string `gorm:"column:role;size:10;not null;default:USER"`                   // USER | ADMIN

	BaseEntity
}

// TableName specifies the table name for Member
func (*Member) TableName() string {
	return "member"
}

// NewMember creates a new Member with the default USER role.
// password must already be hashed (handled in service layer)
func NewMember(name, email, phoneNumber, password string) *Member {
	return &Member{
		Name:        name,
		Email:       email,
		PhoneNumber: phoneNumber,
		Password:    password,
		Role:        RoleUser,
	}
}

func (m *Member) IsAdmin() bool {
	return m.Role == RoleAdmin
}
