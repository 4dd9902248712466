package calendar

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
	"github.com/shanegiles-web/gymnastics-platform/internal/models"
)

const productID = "-//gymnastics-platform//class-service//EN"

var ErrEmptyFeed = errors.New("no instances to export")

// Feed describes one class's instances as an iCalendar document.
type Feed struct {
	ClassName string
	Instances []models.ClassInstance
	Generated time.Time
}

func (f Feed) Calendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropName, f.ClassName)

	stamp := f.Generated.UTC()
	for _, inst := range f.Instances {
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, UID(inst))
		event.Props.SetText(ical.PropSummary, f.ClassName)
		event.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
		event.Props.SetDateTime(ical.PropDateTimeStart, inst.StartDateTime.UTC())
		event.Props.SetDateTime(ical.PropDateTimeEnd, inst.EndDateTime.UTC())
		event.Props.SetText(ical.PropStatus, eventStatus(inst.Status))
		if !inst.UpdatedAt.IsZero() {
			event.Props.SetDateTime(ical.PropLastModified, inst.UpdatedAt.UTC())
		}
		cal.Children = append(cal.Children, event.Component)
	}
	return cal
}

// Encode writes the feed. A feed without instances returns ErrEmptyFeed.
func (f Feed) Encode(w io.Writer) error {
	if len(f.Instances) == 0 {
		return ErrEmptyFeed
	}
	if err := ical.NewEncoder(w).Encode(f.Calendar()); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}

func UID(inst models.ClassInstance) string {
	return inst.ID.String() + "@gymnastics-platform"
}

func eventStatus(s models.InstanceStatus) string {
	if s == models.InstanceCancelled {
		return "CANCELLED"
	}
	return "CONFIRMED"
}
