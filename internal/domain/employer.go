package domain

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EmployerProfile is the employer role record, keyed by the owning account.
type EmployerProfile struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	AccountID   primitive.ObjectID   `bson:"authId" json:"authId"`
	UserName    string               `bson:"userName,omitempty" json:"userName"`
	CompanyName string               `bson:"companyName,omitempty" json:"companyName"`
	Industry    string               `bson:"industry,omitempty" json:"industry"`
	CompanySize string               `bson:"companySize,omitempty" json:"companySize"`
	Website     string               `bson:"website,omitempty" json:"website"`
	Location    *EmployerLocation    `bson:"location,omitempty" json:"location,omitempty"`
	Description string               `bson:"description,omitempty" json:"description"`
	HRContact   `bson:",inline"`
	LogoKey     string               `bson:"logoKey,omitempty" json:"-"`
	HasLogo     bool                 `bson:"-" json:"hasLogo"`
	JobPosted   []primitive.ObjectID `bson:"jobPosted" json:"jobPosted"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

func (p *EmployerProfile) EnsureCollections() {
	if p.JobPosted == nil {
		p.JobPosted = []primitive.ObjectID{}
	}
	p.HasLogo = p.LogoKey != ""
}

type EmployerLocation struct {
	Country   string `bson:"country,omitempty" json:"country" validate:"max=80"`
	CityState string `bson:"cityState,omitempty" json:"cityState" validate:"max=120"`
	Street    string `bson:"street,omitempty" json:"street" validate:"max=160"`
	Area      string `bson:"area,omitempty" json:"area" validate:"max=120"`
	Pincode   string `bson:"pincode,omitempty" json:"pincode" validate:"omitempty,numeric,min=4,max=10"`
}

func (l EmployerLocation) Normalize() EmployerLocation {
	l.Country = strings.TrimSpace(l.Country)
	l.CityState = strings.TrimSpace(l.CityState)
	l.Street = strings.TrimSpace(l.Street)
	l.Area = strings.TrimSpace(l.Area)
	l.Pincode = strings.TrimSpace(l.Pincode)
	return l
}

type HRContact struct {
	HRName  string `bson:"hrName,omitempty" json:"hrName" validate:"omitempty,max=80,valid_name"`
	HRPhone string `bson:"hrPhone,omitempty" json:"hrPhone" validate:"omitempty,valid_phone"`
	HREmail string `bson:"hrEmail,omitempty" json:"hrEmail" validate:"omitempty,email"`
}

func (h HRContact) Normalize() HRContact {
	h.HRName = strings.TrimSpace(h.HRName)
	h.HRPhone = strings.TrimSpace(h.HRPhone)
	h.HREmail = strings.ToLower(strings.TrimSpace(h.HREmail))
	return h
}

// EmployerDetails is the full company form.
type EmployerDetails struct {
	UserName    string            `json:"userName" validate:"omitempty,max=80,valid_name"`
	CompanyName string            `json:"companyName" validate:"required,max=120,no_emoji"`
	Industry    string            `json:"industry" validate:"max=80"`
	CompanySize string            `json:"companySize" validate:"max=40"`
	Website     string            `json:"website" validate:"omitempty,url"`
	Location    *EmployerLocation `json:"location"`
	Description string            `json:"description" validate:"max=5000"`
	HRContact
}

func (d EmployerDetails) Normalize() EmployerDetails {
	d.UserName = strings.TrimSpace(d.UserName)
	d.CompanyName = strings.TrimSpace(d.CompanyName)
	d.Industry = strings.TrimSpace(d.Industry)
	d.CompanySize = strings.TrimSpace(d.CompanySize)
	d.Website = strings.TrimSpace(d.Website)
	d.Description = strings.TrimSpace(d.Description)
	if d.Location != nil {
		loc := d.Location.Normalize()
		d.Location = &loc
	}
	d.HRContact = d.HRContact.Normalize()
	return d
}

// EmployerPatch carries one partial update. Nil fields are left untouched.
type EmployerPatch struct {
	Location    *EmployerLocation
	HR          *HRContact
	Description *string
}

type EmployerRepository interface {
	GetByAccountID(ctx context.Context, accountID primitive.ObjectID) (*EmployerProfile, error)
	Provision(ctx context.Context, accountID primitive.ObjectID) (*EmployerProfile, error)
	Upsert(ctx context.Context, accountID primitive.ObjectID, details EmployerDetails) (*EmployerProfile, error)
	// Patch returns ErrNotFound when the account has no profile.
	Patch(ctx context.Context, accountID primitive.ObjectID, patch EmployerPatch) (*EmployerProfile, error)
	Delete(ctx context.Context, accountID primitive.ObjectID) (*EmployerProfile, error)
	// SetLogo stores the new logo key and returns the previous one.
	SetLogo(ctx context.Context, accountID primitive.ObjectID, key string) (string, error)
	AddJob(ctx context.Context, accountID, jobID primitive.ObjectID) error
	RemoveJob(ctx context.Context, accountID, jobID primitive.ObjectID) error
}

type EmployerUsecase interface {
	GetProfile(ctx context.Context) (*EmployerProfile, error)
	UpsertProfile(ctx context.Context, details EmployerDetails) (*EmployerProfile, error)
	UpdateLocation(ctx context.Context, location EmployerLocation) (*EmployerProfile, error)
	UpdateHR(ctx context.Context, hr HRContact) (*EmployerProfile, error)
	UpdateDescription(ctx context.Context, description string) (*EmployerProfile, error)
	DeleteProfile(ctx context.Context) error
	UploadLogo(ctx context.Context, file Upload) (*EmployerProfile, error)
	LogoURL(ctx context.Context) (string, error)
}
