package table_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/loanpipe/internal/domain/table"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleTable() *table.Table {
	t, err := table.New(
		table.NewRaw("id", []string{"1", "2", "3"}),
		table.NewNumeric("loan_amount", []float64{1000, 2000, 3000}, nil),
		table.NewCategorical("term", []string{"36 months", "60 months", "36 months"}, nil),
	)
	if err != nil {
		panic(err)
	}
	return t
}

func TestTable_New(t *testing.T) {
	Convey("Given columns of equal length", t, func() {
		tbl := sampleTable()

		Convey("Then the shape reflects rows and columns", func() {
			rows, cols := tbl.Shape()
			So(rows, ShouldEqual, 3)
			So(cols, ShouldEqual, 3)
			So(tbl.Names(), ShouldResemble, []string{"id", "loan_amount", "term"})
		})
	})

	Convey("Given duplicate column names", t, func() {
		_, err := table.New(
			table.NewRaw("id", []string{"1"}),
			table.NewRaw("id", []string{"2"}),
		)

		Convey("Then construction fails with a schema error", func() {
			So(errors.Is(err, table.ErrSchema), ShouldBeTrue)
		})
	})

	Convey("Given ragged columns", t, func() {
		_, err := table.New(
			table.NewRaw("id", []string{"1", "2"}),
			table.NewRaw("member_id", []string{"2"}),
		)

		Convey("Then construction fails with a schema error", func() {
			var schemaErr *table.SchemaError
			So(errors.As(err, &schemaErr), ShouldBeTrue)
			So(schemaErr.Column, ShouldEqual, "member_id")
		})
	})
}

func TestTable_Column(t *testing.T) {
	Convey("Given a table", t, func() {
		tbl := sampleTable()

		Convey("When asking for a missing column", func() {
			_, err := tbl.Column("grade")

			Convey("Then a schema error names the column", func() {
				So(errors.Is(err, table.ErrSchema), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "grade")
			})
		})
	})
}

func TestTable_Drop(t *testing.T) {
	Convey("Given a table", t, func() {
		tbl := sampleTable()

		Convey("When dropping an existing and an unknown column", func() {
			out := tbl.Drop("term", "does_not_exist")

			Convey("Then only the existing column is removed", func() {
				So(out.Names(), ShouldResemble, []string{"id", "loan_amount"})
			})

			Convey("And the input table is unchanged", func() {
				So(tbl.Width(), ShouldEqual, 3)
			})
		})

		Convey("When strictly dropping an unknown column", func() {
			_, err := tbl.DropStrict("term", "does_not_exist")

			Convey("Then a schema error is returned", func() {
				So(errors.Is(err, table.ErrSchema), ShouldBeTrue)
			})
		})
	})
}

func TestTable_With(t *testing.T) {
	Convey("Given a table", t, func() {
		tbl := sampleTable()

		Convey("When replacing a column", func() {
			out, err := tbl.With(table.NewNumeric("loan_amount", []float64{1, 2, 3}, nil))
			So(err, ShouldBeNil)

			Convey("Then it keeps its position and the input keeps its values", func() {
				So(out.Names(), ShouldResemble, tbl.Names())
				newCol, _ := out.Column("loan_amount")
				oldCol, _ := tbl.Column("loan_amount")
				So(newCol.Float(0), ShouldEqual, 1)
				So(oldCol.Float(0), ShouldEqual, 1000)
			})
		})

		Convey("When adding a column of the wrong length", func() {
			_, err := tbl.With(table.NewNumeric("dti", []float64{1}, nil))

			Convey("Then a schema error is returned", func() {
				So(errors.Is(err, table.ErrSchema), ShouldBeTrue)
			})
		})
	})
}

func TestTable_Filter(t *testing.T) {
	Convey("Given a table", t, func() {
		tbl := sampleTable()

		Convey("When filtering the middle row out", func() {
			out, err := tbl.Filter([]bool{true, false, true})
			So(err, ShouldBeNil)

			Convey("Then survivors keep their order and categorical labels", func() {
				So(out.Len(), ShouldEqual, 2)
				ids, _ := out.Column("id")
				So(ids.Raw(0), ShouldEqual, "1")
				So(ids.Raw(1), ShouldEqual, "3")
				term, _ := out.Column("term")
				So(term.Level(1), ShouldEqual, "36 months")
			})
		})

		Convey("When the mask has the wrong length", func() {
			_, err := tbl.Filter([]bool{true})

			Convey("Then it fails", func() {
				So(errors.Is(err, table.ErrSchema), ShouldBeTrue)
			})
		})
	})
}

func TestColumn(t *testing.T) {
	Convey("Given raw text with null tokens", t, func() {
		col := table.NewRaw("grade", []string{"A", "", "NaN", " NA ", "B"})

		Convey("Then null tokens are missing", func() {
			So(col.NullCount(), ShouldEqual, 3)
			So(col.IsNull(0), ShouldBeFalse)
			So(col.Text(1), ShouldEqual, "")
		})
	})

	Convey("Given a categorical column", t, func() {
		col := table.NewCategorical("grade", []string{"B", "A", "B", ""}, []bool{true, true, true, false})

		Convey("Then levels are stored once in first-seen order", func() {
			So(col.Levels(), ShouldResemble, []string{"B", "A"})
			So(col.Key(0), ShouldEqual, col.Key(2))
			So(col.Key(3), ShouldBeNil)
		})
	})

	Convey("Given a temporal column", t, func() {
		ts := time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC)
		col := table.NewTemporal("issue_date", []time.Time{ts, {}}, []bool{true, false})

		Convey("Then text renders ISO dates and nulls as empty", func() {
			So(col.Text(0), ShouldEqual, "2021-03-01")
			So(col.Text(1), ShouldEqual, "")
		})
	})

	Convey("Given a numeric column", t, func() {
		col := table.NewNumeric("int_rate", []float64{7.5, 0, 12}, []bool{true, false, true})

		Convey("When taking rows with a null index", func() {
			out := col.Take([]int{2, -1, 0})

			Convey("Then values move and -1 yields null", func() {
				So(out.Float(0), ShouldEqual, 12)
				So(out.IsNull(1), ShouldBeTrue)
				So(out.Float(2), ShouldEqual, 7.5)
			})
		})

		Convey("When mapping values", func() {
			out, err := col.MapFloat(func(_ int, v float64) (float64, error) { return v * 2, nil })
			So(err, ShouldBeNil)

			Convey("Then nulls stay null", func() {
				So(out.Float(0), ShouldEqual, 15)
				So(out.IsNull(1), ShouldBeTrue)
				So(col.Float(0), ShouldEqual, 7.5)
			})
		})

		Convey("When mapping a non-numeric column", func() {
			_, err := table.NewRaw("id", []string{"1"}).MapFloat(func(_ int, v float64) (float64, error) { return v, nil })

			Convey("Then a kind mismatch is reported", func() {
				So(errors.Is(err, table.ErrSchema), ShouldBeTrue)
			})
		})
	})
}
