package model

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestEntryEqual(t *testing.T) {
	Convey("Given two entries", t, func() {
		a := Entry{Rank: 1, Name: "Jannik Sinner", Age: 23, Country: "ITA", Points: 11830, Change: IntPtr(0)}
		b := a

		Convey("Identical values are equal even with distinct change pointers", func() {
			b.Change = IntPtr(0)
			So(a.Equal(b), ShouldBeTrue)
		})

		Convey("A nil change differs from a zero change", func() {
			b.Change = nil
			So(a.Equal(b), ShouldBeFalse)
			So(b.Equal(a), ShouldBeFalse)
		})

		Convey("A points difference is detected", func() {
			b.Points++
			So(a.Equal(b), ShouldBeFalse)
		})
	})
}

func TestSnapshotValidate(t *testing.T) {
	Convey("Given snapshots", t, func() {
		Convey("An empty snapshot is invalid", func() {
			err := Snapshot{}.Validate()
			So(errors.Is(err, ErrInvalidSnapshot), ShouldBeTrue)
		})

		Convey("Ascending unique ranks are valid", func() {
			s := Snapshot{Entries: []Entry{{Rank: 1}, {Rank: 2}, {Rank: 5}}}
			So(s.Validate(), ShouldBeNil)
		})

		Convey("Duplicate or descending ranks are invalid", func() {
			So(Snapshot{Entries: []Entry{{Rank: 1}, {Rank: 1}}}.Validate(), ShouldNotBeNil)
			So(Snapshot{Entries: []Entry{{Rank: 2}, {Rank: 1}}}.Validate(), ShouldNotBeNil)
		})
	})
}

func TestSnapshotCloneAndEqual(t *testing.T) {
	Convey("Given a snapshot with a change value", t, func() {
		s := Snapshot{Entries: []Entry{{Rank: 1, Name: "A B", Change: IntPtr(2)}}, Source: "x"}
		c := s.Clone()

		Convey("The clone is equal but does not share change pointers", func() {
			So(c.Equal(s), ShouldBeTrue)
			*c.Entries[0].Change = 3
			So(*s.Entries[0].Change, ShouldEqual, 2)
			So(c.Equal(s), ShouldBeFalse)
		})

		Convey("Metadata does not take part in equality", func() {
			c.Source = "y"
			So(c.Equal(s), ShouldBeTrue)
		})
	})
}
