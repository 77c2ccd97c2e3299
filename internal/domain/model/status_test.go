package model_test

import (
	"testing"

	model "github.com/okian/loanpipe/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestParseLoanStatus(t *testing.T) {
	convey.Convey("Given loan status text from the source table", t, func() {
		convey.Convey("When the text matches a canonical label", func() {
			convey.Convey("Then it maps to the matching status", func() {
				convey.So(model.ParseLoanStatus("Charged Off"), convey.ShouldEqual, model.StatusChargedOff)
				convey.So(model.ParseLoanStatus("Late (16-30 days)"), convey.ShouldEqual, model.StatusLate16To30)
				convey.So(model.ParseLoanStatus("Late (31-120 days)"), convey.ShouldEqual, model.StatusLate31To120)
				convey.So(model.ParseLoanStatus("Does not meet the credit policy. Status:Charged Off"), convey.ShouldEqual, model.StatusPolicyChargedOff)
			})
		})

		convey.Convey("When the text differs only in case or whitespace", func() {
			convey.Convey("Then it still maps to the same status", func() {
				convey.So(model.ParseLoanStatus("  charged   off "), convey.ShouldEqual, model.StatusChargedOff)
				convey.So(model.ParseLoanStatus("LATE (16-30 DAYS)"), convey.ShouldEqual, model.StatusLate16To30)
			})
		})

		convey.Convey("When the text is unrecognized", func() {
			convey.Convey("Then it is unknown", func() {
				convey.So(model.ParseLoanStatus("Written off"), convey.ShouldEqual, model.StatusUnknown)
				convey.So(model.ParseLoanStatus(""), convey.ShouldEqual, model.StatusUnknown)
				convey.So(model.StatusUnknown.String(), convey.ShouldEqual, "Unknown")
			})
		})
	})
}

func TestLoanStatusPartitions(t *testing.T) {
	convey.Convey("Given every loan status", t, func() {
		all := []model.LoanStatus{
			model.StatusUnknown, model.StatusCurrent, model.StatusFullyPaid, model.StatusChargedOff,
			model.StatusLate16To30, model.StatusLate31To120, model.StatusInGracePeriod, model.StatusDefault,
			model.StatusPolicyFullyPaid, model.StatusPolicyChargedOff,
		}

		convey.Convey("Then exactly two are late and one is charged off", func() {
			late, charged := 0, 0
			for _, s := range all {
				if s.IsLate() {
					late++
				}
				if s.IsChargedOff() {
					charged++
				}
			}
			convey.So(late, convey.ShouldEqual, 2)
			convey.So(charged, convey.ShouldEqual, 1)
			convey.So(model.StatusInGracePeriod.IsLate(), convey.ShouldBeFalse)
		})

		convey.Convey("Then labels round trip through parsing", func() {
			for _, s := range all[1:] {
				convey.So(model.ParseLoanStatus(s.String()), convey.ShouldEqual, s)
			}
		})
	})
}
