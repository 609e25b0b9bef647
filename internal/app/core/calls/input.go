package calls

import (
	"strings"
	"time"

	"github.com/dalemusser/crmhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/crmhub/internal/app/system/inputval"
	"github.com/dalemusser/crmhub/internal/app/system/normalize"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LogInput is the payload for logging a call. UserID defaults to the
// caller; only staff may log on behalf of someone else.
type LogInput struct {
	CustomerID       string     `json:"customer_id" validate:"required,objectid" label:"Customer"`
	UserID           string     `json:"user_id" validate:"objectid" label:"User"`
	Direction        string     `json:"direction" validate:"required,oneof=inbound outbound" label:"Direction"`
	Summary          string     `json:"summary" validate:"required,max=5000" label:"Summary"`
	DurationSeconds  *int       `json:"duration_seconds" validate:"min=0,max=86400" label:"Duration"`
	Outcome          string     `json:"outcome" validate:"max=200" label:"Outcome"`
	FollowUpRequired bool       `json:"follow_up_required"`
	FollowUpDate     *time.Time `json:"follow_up_date" label:"Follow-up date"`
	Tags             []string   `json:"tags" validate:"max=20" label:"Tags"`
}

func (in LogInput) toCall(caller primitive.ObjectID) (models.Call, error) {
	in.Direction = normalize.Enum(in.Direction)
	in.Summary = htmlsanitize.PlainText(in.Summary)
	in.Outcome = htmlsanitize.PlainText(in.Outcome)
	in.UserID = normalize.FilterID(in.UserID)

	res := inputval.Validate(in)
	checkFollowUp(&res, in.FollowUpRequired, in.FollowUpDate)
	checkTags(&res, in.Tags)
	if err := res.Err(); err != nil {
		return models.Call{}, err
	}

	c := models.Call{
		CustomerID:       mustID(in.CustomerID),
		UserID:           caller,
		Direction:        in.Direction,
		Summary:          in.Summary,
		DurationSeconds:  in.DurationSeconds,
		Outcome:          in.Outcome,
		FollowUpRequired: in.FollowUpRequired,
		FollowUpDate:     utcPtr(in.FollowUpDate),
		Tags:             models.NormalizeTags(in.Tags),
	}
	if in.UserID != "" {
		c.UserID = mustID(in.UserID)
	}
	return c, nil
}

// Patch is a partial call update. Nil fields are left unchanged. The
// customer and owner of a call are fixed once logged. ClearFollowUpDate
// removes the date; a nil FollowUpDate alone leaves it as is.
type Patch struct {
	Direction         *string    `json:"direction" validate:"oneof=inbound outbound" label:"Direction"`
	Summary           *string    `json:"summary" validate:"max=5000" label:"Summary"`
	DurationSeconds   *int       `json:"duration_seconds" validate:"min=0,max=86400" label:"Duration"`
	Outcome           *string    `json:"outcome" validate:"max=200" label:"Outcome"`
	FollowUpRequired  *bool      `json:"follow_up_required"`
	FollowUpDate      *time.Time `json:"follow_up_date" label:"Follow-up date"`
	ClearFollowUpDate bool       `json:"clear_follow_up_date"`
	Tags              *[]string  `json:"tags" label:"Tags"`
}

// apply merges p into cur and validates the result as a whole, so a patch
// that only flips follow_up_required is checked against the stored date.
func (p Patch) apply(cur models.Call) (models.Call, error) {
	if p.Direction != nil {
		v := normalize.Enum(*p.Direction)
		p.Direction = &v
	}
	if p.Summary != nil {
		v := htmlsanitize.PlainText(*p.Summary)
		p.Summary = &v
	}
	if p.Outcome != nil {
		v := htmlsanitize.PlainText(*p.Outcome)
		p.Outcome = &v
	}

	res := inputval.Validate(p)
	if p.Direction != nil && *p.Direction == "" {
		res.Add("direction", "is required", "Direction is required.")
	}
	if p.Summary != nil && *p.Summary == "" {
		res.Add("summary", "is required", "Summary is required.")
	}

	next := cur
	if p.Direction != nil {
		next.Direction = *p.Direction
	}
	if p.Summary != nil {
		next.Summary = *p.Summary
	}
	if p.DurationSeconds != nil {
		next.DurationSeconds = p.DurationSeconds
	}
	if p.Outcome != nil {
		next.Outcome = *p.Outcome
	}
	if p.FollowUpRequired != nil {
		next.FollowUpRequired = *p.FollowUpRequired
	}
	switch {
	case p.ClearFollowUpDate:
		next.FollowUpDate = nil
	case p.FollowUpDate != nil:
		next.FollowUpDate = utcPtr(p.FollowUpDate)
	}
	if p.Tags != nil {
		if len(*p.Tags) > 20 {
			res.Add("tags", "must be at most 20 items", "Tags must be at most 20 items.")
		}
		checkTags(&res, *p.Tags)
		next.Tags = models.NormalizeTags(*p.Tags)
	}
	checkFollowUp(&res, next.FollowUpRequired, next.FollowUpDate)
	return next, res.Err()
}

// checkFollowUp requires a follow-up date exactly when a follow-up is required.
func checkFollowUp(res *inputval.Result, required bool, date *time.Time) {
	hasDate := date != nil && !date.IsZero()
	switch {
	case required && !hasDate:
		res.Add("follow_up_date", "is required when follow-up is required", "Follow-up date is required when a follow-up is required.")
	case !required && hasDate:
		res.Add("follow_up_date", "must be empty when no follow-up is required", "Follow-up date must be empty when no follow-up is required.")
	}
}

func checkTags(res *inputval.Result, tags []string) {
	for _, t := range tags {
		if len(strings.TrimSpace(t)) > 50 {
			res.Add("tags", "must be at most 50 characters each", "Each tag must be at most 50 characters.")
			return
		}
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	u := t.UTC().Truncate(time.Millisecond)
	return &u
}

func mustID(hex string) primitive.ObjectID {
	id, _ := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	return id
}
