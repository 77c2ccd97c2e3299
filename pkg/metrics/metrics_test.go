package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			manager := NewManager()

			Convey("Then it uses its own registry", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Registry(), ShouldNotBeNil)
				So(manager.Registry(), ShouldNotEqual, Default().Registry())
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("pipeline"),
				WithDurationBuckets([]float64{1, 10}),
				WithSourceTable("loan_payments"),
				WithPrometheusRegistry(registry),
			)
			manager.RecordRowsLoaded(3)

			Convey("Then metric names and labels follow the options", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_pipeline_rows_loaded_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "loan_payments")
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

		Convey("When recording stage results", func() {
			manager.RecordRowsLoaded(100)
			manager.RecordStage("impute", 100, 39, 12)
			manager.RecordNullsFilled("int_rate", "mean", 7)
			manager.RecordNullsFilled("int_rate", "mean", 3)
			manager.RecordRowsFiltered(40)
			manager.RecordColumnsDropped("drop_columns", 4)
			manager.RecordStageError("reduce_skew", "domain")
			manager.RecordRun("success", 1_700_000_000)
			manager.UpdateReportValue("recovery_rate_percent", 93.5)

			Convey("Then the collectors hold the recorded values", func() {
				So(testutil.ToFloat64(manager.rowsLoaded), ShouldEqual, 100)
				So(testutil.ToFloat64(manager.stageRows.WithLabelValues("impute")), ShouldEqual, 100)
				So(testutil.ToFloat64(manager.stageColumns.WithLabelValues("impute")), ShouldEqual, 39)
				So(testutil.ToFloat64(manager.nullsFilled.WithLabelValues("int_rate", "mean")), ShouldEqual, 10)
				So(testutil.ToFloat64(manager.rowsFiltered), ShouldEqual, 40)
				So(testutil.ToFloat64(manager.columnsDropped.WithLabelValues("drop_columns")), ShouldEqual, 4)
				So(testutil.ToFloat64(manager.stageErrors.WithLabelValues("reduce_skew", "domain")), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.runs.WithLabelValues("success")), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.lastRunUnix), ShouldEqual, 1_700_000_000)
				So(testutil.ToFloat64(manager.reportValues.WithLabelValues("recovery_rate_percent")), ShouldEqual, 93.5)
			})
		})

		Convey("When metrics are disabled", func() {
			disabled := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithMetricsEnabled(false))
			disabled.RecordRowsLoaded(5)
			disabled.RecordRowsFiltered(5)

			Convey("Then nothing is recorded", func() {
				So(testutil.ToFloat64(disabled.rowsLoaded), ShouldEqual, 0)
				So(testutil.ToFloat64(disabled.rowsFiltered), ShouldEqual, 0)
			})
		})
	})

	Convey("Given the global helpers", t, func() {
		Convey("When calling them", func() {
			Convey("Then they do not panic", func() {
				So(func() {
					RecordRowsLoaded(1)
					RecordStage("prune_correlated", 1, 1, 1)
					RecordNullsFilled("term", "mode", 1)
					RecordRowsFiltered(1)
					RecordColumnsDropped("prune_correlated", 6)
					RecordStageError("impute", "schema")
					RecordRun("failure", 1)
					UpdateReportValue("late_loss", 1)
				}, ShouldNotPanic)
			})
		})
	})
}

func TestWriteTextfile(t *testing.T) {
	Convey("Given a manager with recorded values", t, func() {
		manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))
		manager.RecordRowsLoaded(42)

		Convey("When writing a textfile", func() {
			path := filepath.Join(t.TempDir(), "loanpipe.prom")
			err := manager.WriteTextfile(path)

			Convey("Then the file holds the exposition text", func() {
				So(err, ShouldBeNil)
				data, readErr := os.ReadFile(path)
				So(readErr, ShouldBeNil)
				So(strings.Contains(string(data), "loanpipe_cleaning_rows_loaded_total 42"), ShouldBeTrue)
			})
		})

		Convey("When the directory does not exist", func() {
			err := manager.WriteTextfile(filepath.Join(t.TempDir(), "missing", "out.prom"))

			Convey("Then a wrapped error is returned", func() {
				So(errors.Is(err, ErrWriteTextfile), ShouldBeTrue)
			})
		})
	})
}
