package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a manager on a fresh registry", t, func() {
		reg := prometheus.NewRegistry()
		m := NewManager(
			WithPrometheusRegistry(reg),
			WithNamespace("test"),
			WithSubsystem("analytics"),
		)
		So(m, ShouldNotBeNil)

		Convey("All metrics register without collision", func() {
			families, err := reg.Gather()
			So(err, ShouldBeNil)
			// Gauges/counters only appear after first write for some types,
			// but registration itself must not have panicked above.
			So(families, ShouldNotBeNil)
		})

		Convey("Registering the same namespace twice on one registry panics", func() {
			So(func() {
				NewManager(WithPrometheusRegistry(reg), WithNamespace("test"), WithSubsystem("analytics"))
			}, ShouldPanic)
		})
	})
}

func TestPackageHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Counter and gauge helpers do not panic", func() {
			So(func() {
				RecordSubmissionAccepted()
				RecordSubmissionDuplicate()
				RecordPointsAwarded(25)
				RecordCourseBonusAwarded()
				RecordSummaryComputed()
				RecordSummaryLatency(1.5)
				UpdateStoreUsersTracked(3)
				RecordStoreSnapshot(0.2)
				UpdateQueueSize(10)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.1)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerCount(4)
				RecordWorkerProcessingLatency(2.0)
				RecordWorkerError()
				RecordHTTPRequest("leaderboard", "GET", "200")
				RecordHTTPRequestDuration("leaderboard", "GET", "200", 3.0)
				RecordErrorByComponent("queue", "full")
				RecordErrorByEndpoint("submissions", "POST", "client_error")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(8)
			}, ShouldNotPanic)
		})

		Convey("The registry serves gathered families", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}
