package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultSalaryBand = "0-3 LPA"

// EmployeeProfile is the employee role record, keyed by the owning account.
type EmployeeProfile struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	AccountID      primitive.ObjectID   `bson:"authId" json:"authId"`
	UserName       string               `bson:"userName,omitempty" json:"userName"`
	Phone          string               `bson:"phone,omitempty" json:"phone"`
	Location       *EmployeeLocation    `bson:"location,omitempty" json:"location,omitempty"`
	Education      []Education          `bson:"education" json:"education"`
	Experience     []Experience         `bson:"experience" json:"experience"`
	Skills         []Skill              `bson:"skills" json:"skills"`
	Certifications []Certification      `bson:"certifications" json:"certifications"`
	Languages      []Language           `bson:"languages" json:"languages"`
	JobPreferences []JobPreference      `bson:"jobPreferences" json:"jobPreferences"`
	Resume         *ResumeFile          `bson:"resume,omitempty" json:"resume,omitempty"`
	AppliedJobs    []primitive.ObjectID `bson:"appliedJobs" json:"appliedJobs"`
	CreatedAt      time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// EnsureCollections replaces nil collections with empty ones so that a freshly
// provisioned profile serializes its collections as [] rather than null.
func (p *EmployeeProfile) EnsureCollections() {
	if p.Education == nil {
		p.Education = []Education{}
	}
	if p.Experience == nil {
		p.Experience = []Experience{}
	}
	if p.Skills == nil {
		p.Skills = []Skill{}
	}
	if p.Certifications == nil {
		p.Certifications = []Certification{}
	}
	if p.Languages == nil {
		p.Languages = []Language{}
	}
	if p.JobPreferences == nil {
		p.JobPreferences = []JobPreference{}
	}
	if p.AppliedJobs == nil {
		p.AppliedJobs = []primitive.ObjectID{}
	}
}

type EmployeeLocation struct {
	Country    string `bson:"country,omitempty" json:"country" validate:"max=80"`
	Street     string `bson:"street,omitempty" json:"street" validate:"max=160"`
	CityState  string `bson:"cityState,omitempty" json:"cityState" validate:"max=120"`
	Area       string `bson:"area,omitempty" json:"area" validate:"max=120"`
	Pincode    string `bson:"pincode,omitempty" json:"pincode" validate:"omitempty,numeric,min=4,max=10"`
	Relocation bool   `bson:"relocation" json:"relocation"`
}

// EmployeeDetails are the scalar profile fields set through the profile form.
type EmployeeDetails struct {
	UserName string            `json:"userName" validate:"required,min=2,max=80,valid_name,no_emoji"`
	Phone    string            `json:"phone" validate:"omitempty,valid_phone"`
	Location *EmployeeLocation `json:"location"`
}

func (d EmployeeDetails) Normalize() EmployeeDetails {
	d.UserName = strings.TrimSpace(d.UserName)
	d.Phone = strings.TrimSpace(d.Phone)
	if d.Location != nil {
		loc := *d.Location
		loc.Country = strings.TrimSpace(loc.Country)
		loc.Street = strings.TrimSpace(loc.Street)
		loc.CityState = strings.TrimSpace(loc.CityState)
		loc.Area = strings.TrimSpace(loc.Area)
		loc.Pincode = strings.TrimSpace(loc.Pincode)
		d.Location = &loc
	}
	return d
}

// ResumeFile references the stored resume blob.
type ResumeFile struct {
	Key         string    `bson:"key" json:"-"`
	FileName    string    `bson:"fileName" json:"fileName"`
	ContentType string    `bson:"contentType" json:"contentType"`
	Size        int64     `bson:"size" json:"size"`
	UploadedAt  time.Time `bson:"uploadedAt" json:"uploadedAt"`
}

type Education struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	Degree string             `bson:"degree" json:"degree" validate:"required,max=120,no_emoji"`
	Course string             `bson:"course" json:"course" validate:"required,max=120,no_emoji"`
}

func (e Education) EntryID() primitive.ObjectID { return e.ID }
func (e Education) WithID(id primitive.ObjectID) Education { e.ID = id; return e }
func (e Education) DuplicateKey() bson.M { return bson.M{"degree": e.Degree, "course": e.Course} }
func (e Education) Normalize() Education {
	e.Degree = strings.TrimSpace(e.Degree)
	e.Course = strings.TrimSpace(e.Course)
	return e
}

type Experience struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Company     string             `bson:"company" json:"company" validate:"required,max=120"`
	Title       string             `bson:"title" json:"title" validate:"required,max=120"`
	StartDate   time.Time          `bson:"startDate" json:"startDate" validate:"required"`
	EndDate     time.Time          `bson:"endDate" json:"endDate" validate:"required,gtefield=StartDate"`
	Description string             `bson:"description" json:"description" validate:"required,max=2000"`
}

func (e Experience) EntryID() primitive.ObjectID { return e.ID }
func (e Experience) WithID(id primitive.ObjectID) Experience { e.ID = id; return e }
func (e Experience) DuplicateKey() bson.M { return bson.M{"company": e.Company, "title": e.Title} }
func (e Experience) Normalize() Experience {
	e.Company = strings.TrimSpace(e.Company)
	e.Title = strings.TrimSpace(e.Title)
	e.Description = strings.TrimSpace(e.Description)
	e.StartDate = e.StartDate.UTC().Truncate(time.Millisecond)
	e.EndDate = e.EndDate.UTC().Truncate(time.Millisecond)
	return e
}

// UnmarshalJSON accepts calendar dates such as "2020-01-31" as well as
// RFC 3339 timestamps for StartDate and EndDate.
func (e *Experience) UnmarshalJSON(data []byte) error {
	type plain Experience
	aux := struct {
		*plain
		StartDate jsonDate `json:"startDate"`
		EndDate   jsonDate `json:"endDate"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.StartDate = time.Time(aux.StartDate)
	e.EndDate = time.Time(aux.EndDate)
	return nil
}

type jsonDate time.Time

func (d *jsonDate) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = jsonDate(t)
	return nil
}

// ParseDate reads a calendar date as UTC midnight, or an RFC 3339 timestamp
// converted to UTC. An empty string yields the zero time.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", value)
	}
	return t.UTC(), nil
}

type Skill struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	Name       string             `bson:"name" json:"name" validate:"required,max=60,no_emoji"`
	Experience string             `bson:"experience,omitempty" json:"experience" validate:"max=60"`
}

func (s Skill) EntryID() primitive.ObjectID { return s.ID }
func (s Skill) WithID(id primitive.ObjectID) Skill { s.ID = id; return s }
func (s Skill) DuplicateKey() bson.M { return bson.M{"name": s.Name} }
func (s Skill) Normalize() Skill {
	s.Name = strings.TrimSpace(s.Name)
	s.Experience = strings.TrimSpace(s.Experience)
	return s
}

type Certification struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	Name       string             `bson:"name" json:"name" validate:"required,max=120"`
	ExpireYear string             `bson:"expireYear,omitempty" json:"expireYear" validate:"omitempty,year"`
}

func (c Certification) EntryID() primitive.ObjectID { return c.ID }
func (c Certification) WithID(id primitive.ObjectID) Certification { c.ID = id; return c }
func (c Certification) DuplicateKey() bson.M { return bson.M{"name": c.Name} }
func (c Certification) Normalize() Certification {
	c.Name = strings.TrimSpace(c.Name)
	c.ExpireYear = strings.TrimSpace(c.ExpireYear)
	return c
}

type Language struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name" validate:"required,max=60,no_emoji"`
	Proficiency string             `bson:"proficiency,omitempty" json:"proficiency" validate:"omitempty,oneof=beginner intermediate expert fluent native"`
}

func (l Language) EntryID() primitive.ObjectID { return l.ID }
func (l Language) WithID(id primitive.ObjectID) Language { l.ID = id; return l }
func (l Language) DuplicateKey() bson.M { return bson.M{"name": l.Name} }
func (l Language) Normalize() Language {
	l.Name = strings.TrimSpace(l.Name)
	l.Proficiency = strings.ToLower(strings.TrimSpace(l.Proficiency))
	return l
}

type JobPreference struct {
	ID                primitive.ObjectID `bson:"_id" json:"id"`
	JobTitle          []string           `bson:"jobTitle" json:"jobTitle" validate:"required,min=1,dive,required,max=80"`
	PreferredLocation []string           `bson:"preferredLocation" json:"preferredLocation" validate:"required,min=1,dive,required,max=80"`
	ExpectedSalary    string             `bson:"expectedSalary" json:"expectedSalary" validate:"salary_band"`
	JobType           []string           `bson:"jobType" json:"jobType" validate:"dive,oneof=full-time part-time internship contract freelance"`
	WorkAvailability  []string           `bson:"workAvailability" json:"workAvailability" validate:"required,min=1,dive,oneof=monday-to-friday weekend-availability weekend-only"`
	ShiftPreference   []string           `bson:"shiftPreference" json:"shiftPreference" validate:"required,min=1,dive,oneof=day-shift morning-shift rotational-shift night-shift evening-shift fixed-shift us-shift uk-shift"`
	Remote            string             `bson:"remote" json:"remote" validate:"oneof=remote hybrid onsite"`
}

func (p JobPreference) EntryID() primitive.ObjectID { return p.ID }
func (p JobPreference) WithID(id primitive.ObjectID) JobPreference { p.ID = id; return p }
func (p JobPreference) DuplicateKey() bson.M {
	return bson.M{"jobTitle": p.JobTitle, "preferredLocation": p.PreferredLocation}
}
func (p JobPreference) Normalize() JobPreference {
	p.JobTitle = trimAll(p.JobTitle)
	p.PreferredLocation = trimAll(p.PreferredLocation)
	p.JobType = trimAll(p.JobType)
	p.WorkAvailability = trimAll(p.WorkAvailability)
	p.ShiftPreference = trimAll(p.ShiftPreference)
	p.ExpectedSalary = strings.TrimSpace(p.ExpectedSalary)
	if p.ExpectedSalary == "" {
		p.ExpectedSalary = DefaultSalaryBand
	}
	p.Remote = strings.ToLower(strings.TrimSpace(p.Remote))
	if p.Remote == "" {
		p.Remote = "onsite"
	}
	if p.JobType == nil {
		p.JobType = []string{}
	}
	return p
}

func trimAll(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

type EmployeeRepository interface {
	// GetByAccountID returns ErrNotFound when the account has no profile.
	GetByAccountID(ctx context.Context, accountID primitive.ObjectID) (*EmployeeProfile, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]EmployeeProfile, error)
	// Provision creates an empty profile unless one exists. Idempotent.
	Provision(ctx context.Context, accountID primitive.ObjectID) (*EmployeeProfile, error)
	UpdateDetails(ctx context.Context, accountID primitive.ObjectID, details EmployeeDetails) (*EmployeeProfile, error)

	// PushEntry appends entry to kind's collection unless an element already
	// matches dupKey, in which case it returns ErrConflict. Check and write
	// are a single atomic step.
	PushEntry(ctx context.Context, accountID primitive.ObjectID, kind SubResourceKind, entry interface{}, dupKey bson.M) (*EmployeeProfile, error)
	// ReplaceEntry overwrites the element with entryID. ErrNotFound when no
	// such element exists, ErrConflict when another element matches dupKey.
	ReplaceEntry(ctx context.Context, accountID primitive.ObjectID, kind SubResourceKind, entryID primitive.ObjectID, entry interface{}, dupKey bson.M) (*EmployeeProfile, error)
	// PullEntry removes the element with entryID, ErrNotFound when absent.
	PullEntry(ctx context.Context, accountID primitive.ObjectID, kind SubResourceKind, entryID primitive.ObjectID) (*EmployeeProfile, error)

	// SetResume stores the new reference and returns the one it replaced.
	SetResume(ctx context.Context, accountID primitive.ObjectID, resume ResumeFile) (*ResumeFile, error)
	// ClearResume removes the reference and returns it, ErrNotFound when
	// there was none.
	ClearResume(ctx context.Context, accountID primitive.ObjectID) (*ResumeFile, error)
	AddAppliedJob(ctx context.Context, profileID, jobID primitive.ObjectID) error
	RemoveAppliedJob(ctx context.Context, jobID primitive.ObjectID) error
}

type EmployeeUsecase interface {
	GetProfile(ctx context.Context) (*EmployeeProfile, error)
	UpdateProfile(ctx context.Context, details EmployeeDetails) (*EmployeeProfile, error)
	UploadResume(ctx context.Context, file Upload) (*ResumeFile, error)
	ResumeURL(ctx context.Context) (string, error)
	DeleteResume(ctx context.Context) error
}
