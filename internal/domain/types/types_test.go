package types_test

import (
	"encoding/json"
	"testing"

	checkin "github.com/okian/huddle/internal/domain/checkin"
	types "github.com/okian/huddle/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewDashboard(t *testing.T) {
	Convey("Given derived views", t, func() {
		records := []checkin.Record{
			{ID: "1", Fields: checkin.Fields{Jersey: "4", Date: "2024-05-02", Name: "Ava"}},
			{ID: "2", Fields: checkin.Fields{Jersey: "8", Date: "2024-05-01", CoachActionNeeded: true}},
		}
		views := checkin.Derive(records, "2024-05-02", checkin.PolicyLiteral)

		Convey("When building the dashboard", func() {
			d := types.NewDashboard(views, len(records))

			Convey("Then counts should match the view sizes", func() {
				So(d.Date, ShouldEqual, "2024-05-02")
				So(d.Policy, ShouldEqual, "literal")
				So(d.Records, ShouldEqual, 2)
				So(d.Counts, ShouldResemble, types.Counts{Today: 1, Alerts: 1, Missing: 1})
			})

			Convey("Then cards should carry display fallbacks", func() {
				So(d.Today[0].Name, ShouldEqual, "Ava")
				So(d.Alerts[0].Name, ShouldEqual, checkin.DefaultName)
				So(d.Missing[0].LastContact, ShouldEqual, checkin.DefaultLastContact)
			})
		})

		Convey("When nothing matches", func() {
			d := types.NewDashboard(checkin.Derive(nil, "2024-05-02", checkin.PolicyDistinct), 0)

			Convey("Then the views should encode as empty arrays", func() {
				body, err := json.Marshal(d)
				So(err, ShouldBeNil)
				So(string(body), ShouldContainSubstring, `"today":[]`)
				So(string(body), ShouldContainSubstring, `"alerts":[]`)
				So(string(body), ShouldContainSubstring, `"missing":[]`)
				So(string(body), ShouldNotContainSubstring, "refresh_error")
			})
		})
	})
}
