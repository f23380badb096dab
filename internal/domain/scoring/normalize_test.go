package scoring_test

import (
	"testing"

	scoring "github.com/okian/wellscreen/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClamp(t *testing.T) {
	Convey("Given Clamp", t, func() {
		Convey("Then values inside the range pass through", func() {
			So(scoring.Clamp(42.5, 0, 100), ShouldEqual, 42.5)
		})

		Convey("Then values outside the range saturate", func() {
			So(scoring.Clamp(-3, 0, 100), ShouldEqual, 0.0)
			So(scoring.Clamp(250, 0, 100), ShouldEqual, 100.0)
		})

		Convey("Then the bounds themselves are kept", func() {
			So(scoring.Clamp(0, 0, 100), ShouldEqual, 0.0)
			So(scoring.Clamp(100, 0, 100), ShouldEqual, 100.0)
		})
	})
}

func TestNormalizeLinear(t *testing.T) {
	Convey("Given NormalizeLinear over [300, 1500]", t, func() {
		Convey("Then it returns exactly 0 at the lower bound", func() {
			So(scoring.NormalizeLinear(300, 300, 1500), ShouldEqual, 0.0)
		})

		Convey("Then it returns exactly 100 at the upper bound", func() {
			So(scoring.NormalizeLinear(1500, 300, 1500), ShouldEqual, 100.0)
		})

		Convey("Then it interpolates linearly in between", func() {
			So(scoring.NormalizeLinear(900, 300, 1500), ShouldEqual, 50.0)
			So(scoring.NormalizeLinear(400, 300, 1500), ShouldAlmostEqual, 8.3333, 0.0001)
		})

		Convey("Then values outside the range saturate instead of extrapolating", func() {
			So(scoring.NormalizeLinear(-1000, 300, 1500), ShouldEqual, 0.0)
			So(scoring.NormalizeLinear(299.9, 300, 1500), ShouldEqual, 0.0)
			So(scoring.NormalizeLinear(1500.1, 300, 1500), ShouldEqual, 100.0)
			So(scoring.NormalizeLinear(1e9, 300, 1500), ShouldEqual, 100.0)
		})
	})
}
