package rows

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestValidator(t *testing.T) {
	Convey("Given the default validator", t, func() {
		v := NewValidator()

		Convey("A complete ranking line is accepted", func() {
			row := []string{"12", "x", "x", "Novak Djokovic", "36", "SRB", "9,540", "+1"}
			So(v.Valid(row), ShouldBeTrue)
		})

		Convey("A line without the change column is accepted", func() {
			So(v.Valid([]string{"3", "", "", "Carlos Alcaraz", "21", "ESP", "7010"}), ShouldBeTrue)
		})

		Convey("A one-token name and lowercase country are rejected", func() {
			So(v.Valid([]string{"7", "x", "x", "J", "28", "usa", "5000"}), ShouldBeFalse)
		})

		Convey("Each malformed column rejects the row", func() {
			good := []string{"5", "", "", "Daniil Medvedev", "28", "RUS", "5,000", "-2"}
			cases := map[string]func(r []string){
				"short row":        func(r []string) {},
				"rank not digits":  func(r []string) { r[0] = "5." },
				"rank zero":        func(r []string) { r[0] = "0" },
				"rank signed":      func(r []string) { r[0] = "+5" },
				"empty name":       func(r []string) { r[3] = "  " },
				"age not digits":   func(r []string) { r[4] = "28y" },
				"age zero":         func(r []string) { r[4] = "0" },
				"age implausible":  func(r []string) { r[4] = "130" },
				"country too long": func(r []string) { r[5] = "RUSS" },
				"country digits":   func(r []string) { r[5] = "R1S" },
				"country unicode":  func(r []string) { r[5] = "ÄBC" },
				"points letters":   func(r []string) { r[6] = "5k" },
				"points only sep":  func(r []string) { r[6] = ",." },
				"points negative":  func(r []string) { r[6] = "-10" },
			}
			for name, mutate := range cases {
				row := append([]string(nil), good...)
				if name == "short row" {
					row = row[:6]
				}
				mutate(row)
				So(v.Valid(row), ShouldBeFalse)
			}
			So(v.Valid(good), ShouldBeTrue)
		})

		Convey("Cell text is trimmed before checks", func() {
			row := []string{" 1 ", "", "", "  Jannik   Sinner ", " 23", "ITA ", " 11 830 ", ""}
			So(v.Valid(row), ShouldBeTrue)
		})

		Convey("Other thousands separators are stripped", func() {
			for _, pts := range []string{"9.540", "9'540", "9 540", "9 540"} {
				So(v.Valid([]string{"1", "", "", "A B", "30", "SRB", pts}), ShouldBeTrue)
			}
		})

		Convey("Rejecting a row does not allocate", func() {
			bad := []string{"7", "x", "x", "J", "28", "usa", "5000"}
			allocs := testing.AllocsPerRun(100, func() { _ = v.Valid(bad) })
			So(allocs, ShouldEqual, 0)
		})
	})

	Convey("Given a validator with a custom max age", t, func() {
		v := NewValidator(WithMaxAge(40))
		So(v.Valid([]string{"1", "", "", "A B", "41", "SRB", "10"}), ShouldBeFalse)
		So(v.Valid([]string{"1", "", "", "A B", "40", "SRB", "10"}), ShouldBeTrue)
	})
}

func TestExtractor(t *testing.T) {
	Convey("Given the default extractor", t, func() {
		x := NewExtractor()

		Convey("The reference row yields the expected entry", func() {
			e := x.Extract([]string{"12", "x", "x", "Novak Djokovic", "36", "SRB", "9,540", "+1"})
			So(e.Rank, ShouldEqual, 12)
			So(e.Name, ShouldEqual, "Novak Djokovic")
			So(e.Age, ShouldEqual, 36)
			So(e.Country, ShouldEqual, "SRB")
			So(e.Points, ShouldEqual, 9540)
			So(e.Change, ShouldNotBeNil)
			So(*e.Change, ShouldEqual, 1)
		})

		Convey("A negative change is found inside surrounding text", func() {
			e := x.Extract([]string{"4", "", "", "Alexander Zverev", "27", "GER", "7,000", "(-3)"})
			So(*e.Change, ShouldEqual, -3)
		})

		Convey("A change cell without a signed number is absent", func() {
			e := x.Extract([]string{"4", "", "", "Alexander Zverev", "27", "GER", "7,000", "="})
			So(e.Change, ShouldBeNil)
		})

		Convey("A missing change column is absent", func() {
			e := x.Extract([]string{"4", "", "", "Alexander  Zverev", "27", "GER", "7000"})
			So(e.Change, ShouldBeNil)
			So(e.Name, ShouldEqual, "Alexander Zverev")
		})
	})

	Convey("Given a custom layout", t, func() {
		l := Layout{Rank: 0, Name: 1, Age: 2, Country: 3, Points: 4, Change: -1, MinCells: 5}
		v := NewValidator(WithLayout(l))
		x := NewExtractor(WithLayout(l))
		row := []string{"2", "Taylor Fritz", "27", "USA", "5,100", "+9"}

		So(v.Valid(row), ShouldBeTrue)
		e := x.Extract(row)
		So(e.Points, ShouldEqual, 5100)
		So(e.Change, ShouldBeNil)
	})

	Convey("Given a layout whose columns lie past MinCells", t, func() {
		l := Layout{Rank: 0, Name: 1, Age: 2, Country: 3, Points: 9, Change: -1, MinCells: 4}
		v := NewValidator(WithLayout(l))

		Convey("Short rows are rejected instead of indexed out of range", func() {
			So(v.Valid([]string{"2", "Taylor Fritz", "27", "USA", "5,100"}), ShouldBeFalse)
		})

		Convey("Rows reaching the points column are validated", func() {
			row := []string{"2", "Taylor Fritz", "27", "USA", "", "", "", "", "", "5,100"}
			So(v.Valid(row), ShouldBeTrue)
			So(NewExtractor(WithLayout(l)).Extract(row).Points, ShouldEqual, 5100)
		})
	})

	Convey("Given a layout with a negative mandatory column", t, func() {
		v := NewValidator(WithLayout(Layout{Rank: -1, Name: 1, Age: 2, Country: 3, Points: 4, MinCells: 5}))

		Convey("The default layout stays in effect", func() {
			So(v.Valid([]string{"12", "x", "x", "Novak Djokovic", "36", "SRB", "9,540", "+1"}), ShouldBeTrue)
		})
	})
}

func TestParsePoints(t *testing.T) {
	Convey("Given points cells as they appear on the page and in old datasets", t, func() {
		for in, want := range map[string]int{
			"11,830":     11830,
			"9.540":      9540,
			"1'200":      1200,
			"7\u00a0915": 7915,
			" 480 ":      480,
			"3\u202f000": 3000,
		} {
			n, ok := ParsePoints(in)
			So(ok, ShouldBeTrue)
			So(n, ShouldEqual, want)
		}
		for _, in := range []string{"", ",", "12a", "-5", "1,2x"} {
			_, ok := ParsePoints(in)
			So(ok, ShouldBeFalse)
		}
	})
}
