package calendar_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plancal/internal/calendar"
	"plancal/internal/caltime"
	"plancal/internal/model"
)

var (
	feb3     = caltime.NewDate(2025, 2, 3) // Monday
	weekdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
)

func clock(h, m int) caltime.Clock { return caltime.ClockOf(h, m) }

func newCalendar(t *testing.T, policy calendar.ConflictPolicy) *calendar.Calendar {
	t.Helper()
	c, err := calendar.New("Work", policy)
	require.NoError(t, err)
	return c
}

func timedEvent(t *testing.T, subject string, d caltime.Date, start, end caltime.Clock) *model.Single {
	t.Helper()
	e, err := model.NewBuilder().Subject(subject).StartDate(d).StartTime(start).EndTime(end).Build()
	require.NoError(t, err)
	return e
}

func allDayEvent(t *testing.T, subject string, from, to caltime.Date) *model.Single {
	t.Helper()
	e, err := model.NewBuilder().Subject(subject).StartDate(from).EndDate(to).Build()
	require.NoError(t, err)
	return e
}

func mustAdd(t *testing.T, c *calendar.Calendar, e *model.Single) {
	t.Helper()
	ok, err := c.AddEvent(e)
	require.NoError(t, err)
	require.True(t, ok, "add %s", e)
}

func weekdaySeries(t *testing.T, c *calendar.Calendar, subject string, n int) (*model.RecurringEvent, error) {
	t.Helper()
	p, err := model.WithOccurrences(weekdays, n)
	require.NoError(t, err)
	return c.AddRecurringEvent(model.NewBuilder().Subject(subject).StartDate(feb3), p, feb3)
}

func TestNew_Validation(t *testing.T) {
	_, err := calendar.New("  ", calendar.RejectConflicts)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	_, err = calendar.New("Work", calendar.ConflictPolicy(7))
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	c := newCalendar(t, calendar.AllowConflicts)
	assert.Equal(t, "Work", c.Title())
	assert.Equal(t, calendar.AllowConflicts, c.Policy())
}

func TestAddEvent_Nil(t *testing.T) {
	_, err := newCalendar(t, calendar.RejectConflicts).AddEvent(nil)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestAddEvent_DuplicateKeyRejectedUnderEitherPolicy(t *testing.T) {
	for _, policy := range []calendar.ConflictPolicy{calendar.RejectConflicts, calendar.AllowConflicts} {
		t.Run(policy.String(), func(t *testing.T) {
			c := newCalendar(t, policy)
			a, err := model.NewBuilder().Subject("Sync").StartDate(feb3).StartTime(clock(9, 0)).
				Description("first").Location("A").Build()
			require.NoError(t, err)
			b, err := model.NewBuilder().Subject("Sync").StartDate(feb3).StartTime(clock(9, 0)).
				EndTime(clock(9, 30)).Description("second").Location("B").Build()
			require.NoError(t, err)

			mustAdd(t, c, a)
			ok, err := c.AddEvent(b)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Len(t, c.AllEvents(), 1)
		})
	}
}

func TestAddEvent_PolicyDecidesOverlap(t *testing.T) {
	cases := map[calendar.ConflictPolicy]int{
		calendar.RejectConflicts: 1,
		calendar.AllowConflicts:  2,
	}
	for policy, want := range cases {
		c := newCalendar(t, policy)
		mustAdd(t, c, timedEvent(t, "A", feb3, clock(10, 0), clock(11, 0)))
		ok, err := c.AddEvent(timedEvent(t, "B", feb3, clock(10, 30), clock(11, 30)))
		require.NoError(t, err)
		assert.Equal(t, want == 2, ok, policy.String())
		assert.Len(t, c.AllEvents(), want, policy.String())
	}
}

func TestAddEvent_TouchingEventsDoNotConflict(t *testing.T) {
	c := newCalendar(t, calendar.RejectConflicts)
	mustAdd(t, c, timedEvent(t, "A", feb3, clock(10, 0), clock(11, 0)))
	mustAdd(t, c, timedEvent(t, "B", feb3, clock(11, 0), clock(12, 0)))
	mustAdd(t, c, timedEvent(t, "C", feb3, clock(9, 0), clock(10, 0)))
}

func TestAddEvent_ConflictsWithSeriesInstance(t *testing.T) {
	c := newCalendar(t, calendar.RejectConflicts)
	_, err := weekdaySeries(t, c, "Standup", 5)
	require.NoError(t, err)

	ok, err := c.AddEvent(timedEvent(t, "Dentist", feb3.AddDays(2), clock(9, 30), clock(10, 30)))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.AddEvent(timedEvent(t, "Lunch", feb3.AddDays(2), clock(12, 0), clock(13, 0)))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsBusy_HalfOpenEnd(t *testing.T) {
	c := newCalendar(t, calendar.RejectConflicts)
	mustAdd(t, c, timedEvent(t, "Workshop", feb3, clock(10, 0), clock(12, 0)))

	assert.True(t, c.IsBusy(feb3, clock(10, 0)))
	assert.True(t, c.IsBusy(feb3, clock(10, 30)))
	assert.True(t, c.IsBusy(feb3, clock(11, 59)))
	assert.False(t, c.IsBusy(feb3, clock(12, 0)))
	assert.False(t, c.IsBusy(feb3, clock(9, 59)))
	assert.False(t, c.IsBusy(feb3.AddDays(1), clock(10, 30)))
}

func TestIsBusy_MultiDayTimed(t *testing.T) {
	c := newCalendar(t, calendar.RejectConflicts)
	may1, may2, may3 := caltime.NewDate(2025, 5, 1), caltime.NewDate(2025, 5, 2), caltime.NewDate(2025, 5, 3)
	e, err := model.NewBuilder().Subject("Conference").StartDate(may1).StartTime(clock(22, 0)).
		EndDate(may3).EndTime(clock(2, 0)).Build()
	require.NoError(t, err)
	mustAdd(t, c, e)

	assert.False(t, c.IsBusy(may1, clock(21, 59)))
	assert.True(t, c.IsBusy(may1, clock(23, 0)))
	assert.True(t, c.IsBusy(may2, clock(12, 0)))
	assert.True(t, c.IsBusy(may3, clock(1, 59)))
	assert.False(t, c.IsBusy(may3, clock(2, 0)))
}

func TestIsBusy_AllDayAndSeries(t *testing.T) {
	c := newCalendar(t, calendar.AllowConflicts)
	holiday := caltime.NewDate(2025, 2, 10)
	mustAdd(t, c, allDayEvent(t, "Holiday", holiday, holiday))
	_, err := weekdaySeries(t, c, "Standup", 5)
	require.NoError(t, err)

	assert.True(t, c.IsBusy(holiday, clock(3, 0)))
	assert.True(t, c.IsBusy(feb3, clock(9, 0)))
	assert.False(t, c.IsBusy(feb3, clock(10, 0)))
	assert.False(t, c.IsBusy(feb3.AddDays(5), clock(9, 30)), "saturday")
}

func TestEventsOnDate_MultiDayAllDay(t *testing.T) {
	c := newCalendar(t, calendar.RejectConflicts)
	may1, may3 := caltime.NewDate(2025, 5, 1), caltime.NewDate(2025, 5, 3)
	mustAdd(t, c, allDayEvent(t, "Trip", may1, may3))

	for d := may1; !d.After(may3); d = d.AddDays(1) {
		assert.Len(t, c.EventsOnDate(d), 1, d.String())
	}
	assert.Empty(t, c.EventsOnDate(may1.AddDays(-1)))
	assert.Empty(t, c.EventsOnDate(may3.AddDays(1)))
}

func TestEventsOnDate_IncludesInstance(t *testing.T) {
	c := newCalendar(t, calendar.RejectConflicts)
	mustAdd(t, c, timedEvent(t, "Lunch", feb3, clock(12, 0), clock(13, 0)))
	series, err := weekdaySeries(t, c, "Standup", 5)
	require.NoError(t, err)

	got := c.EventsOnDate(feb3)
	require.Len(t, got, 2)
	assert.Equal(t, "Lunch", got[0].Subject())
	inst, ok := series.Instance(feb3)
	require.True(t, ok)
	assert.Same(t, inst, got[1])
}

func TestAddRecurringEvent_AtomicRejection(t *testing.T) {
	c := newCalendar(t, calendar.RejectConflicts)
	wed := feb3.AddDays(2)
	mustAdd(t, c, timedEvent(t, "Dentist", wed, clock(9, 30), clock(10, 30)))

	series, err := weekdaySeries(t, c, "Standup", 10)
	require.Error(t, err)
	assert.Nil(t, series)
	assert.ErrorIs(t, err, calendar.ErrRecurringConflict)

	var conflict *calendar.RecurringConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, wed, conflict.Date)

	assert.Len(t, c.AllEvents(), 1)
	assert.Empty(t, c.RecurringEvents())
}

func TestAddRecurringEvent_AllowPolicyAcceptsOverlap(t *testing.T) {
	c := newCalendar(t, calendar.AllowConflicts)
	mustAdd(t, c, timedEvent(t, "Dentist", feb3.AddDays(2), clock(9, 30), clock(10, 30)))

	series, err := weekdaySeries(t, c, "Standup", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, series.Len())
	assert.Len(t, c.AllEvents(), 11)
}

func TestAddRecurringEvent_SeriesConflictsWithSeries(t *testing.T) {
	c := newCalendar(t, calendar.RejectConflicts)
	_, err := weekdaySeries(t, c, "Standup", 5)
	require.NoError(t, err)

	_, err = weekdaySeries(t, c, "Standup again", 5)
	var conflict *calendar.RecurringConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, feb3, conflict.Date)
	assert.Len(t, c.RecurringEvents(), 1)
}

func TestAddRecurringEvent_TimeDefaults(t *testing.T) {
	c := newCalendar(t, calendar.AllowConflicts)
	p, err := model.WithOccurrences([]time.Weekday{time.Monday}, 2)
	require.NoError(t, err)

	series, err := c.AddRecurringEvent(model.NewBuilder().Subject("Plain").StartDate(feb3), p, feb3)
	require.NoError(t, err)
	assert.Equal(t, clock(9, 0), series.StartTime())
	end, ok := series.EndTime()
	require.True(t, ok)
	assert.Equal(t, clock(10, 0), end)

	series, err = c.AddRecurringEvent(model.NewBuilder().Subject("Afternoon").StartDate(feb3).
		StartTime(clock(14, 0)).EndTime(clock(15, 30)).Location("Lab"), p, feb3)
	require.NoError(t, err)
	inst := series.Instances()[1]
	assert.Equal(t, feb3.AddDays(7), inst.StartDate())
	start, _ := inst.StartTime()
	assert.Equal(t, clock(14, 0), start)
	end, _ = inst.EndTime()
	assert.Equal(t, clock(15, 30), end)
	assert.Equal(t, "Lab", inst.Location())
}

func TestAddRecurringEvent_InvalidInput(t *testing.T) {
	c := newCalendar(t, calendar.RejectConflicts)
	p, err := model.WithOccurrences(weekdays, 1)
	require.NoError(t, err)

	_, err = c.AddRecurringEvent(nil, p, feb3)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
	_, err = c.AddRecurringEvent(model.NewBuilder().Subject("x").StartDate(feb3), model.Pattern{}, feb3)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
	_, err = c.AddRecurringEvent(model.NewBuilder().StartDate(feb3), p, feb3)
	assert.ErrorIs(t, err, model.ErrInvalidState)
}

func TestEventsInRange_SortedAndBounded(t *testing.T) {
	c := newCalendar(t, calendar.AllowConflicts)
	feb5 := feb3.AddDays(2)
	mustAdd(t, c, timedEvent(t, "Late", feb5, clock(16, 0), clock(17, 0)))
	mustAdd(t, c, allDayEvent(t, "Offsite", feb3.AddDays(-3), feb3))
	mustAdd(t, c, timedEvent(t, "Early", feb5, clock(8, 0), clock(8, 30)))
	mustAdd(t, c, allDayEvent(t, "Payday", feb5, feb5))
	mustAdd(t, c, timedEvent(t, "Outside", feb3.AddDays(10), clock(8, 0), clock(8, 30)))
	_, err := weekdaySeries(t, c, "Standup", 10)
	require.NoError(t, err)

	got, err := c.EventsInRange(feb3, feb5)
	require.NoError(t, err)

	var subjects []string
	for _, e := range got {
		subjects = append(subjects, e.Subject())
	}
	assert.Equal(t, []string{
		"Offsite", "Standup",
		"Standup",
		"Payday", "Early", "Standup", "Late",
	}, subjects)

	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].StartDate().Before(got[i-1].StartDate()))
	}
}

func TestEventsInRange_InvalidRange(t *testing.T) {
	_, err := newCalendar(t, calendar.RejectConflicts).EventsInRange(feb3, feb3.AddDays(-1))
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestEventsInRange_SameKeyInstancesReportedOnce(t *testing.T) {
	c := newCalendar(t, calendar.AllowConflicts)
	first, err := weekdaySeries(t, c, "Standup", 1)
	require.NoError(t, err)
	_, err = weekdaySeries(t, c, "Standup", 1)
	require.NoError(t, err)

	got, err := c.EventsInRange(feb3, feb3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	inst, _ := first.Instance(feb3)
	assert.Same(t, inst, got[0])
	assert.Len(t, c.AllEvents(), 2)
}

func TestEvent_Lookup(t *testing.T) {
	c := newCalendar(t, calendar.AllowConflicts)
	nine := clock(9, 0)
	timed := timedEvent(t, "Sync", feb3, nine, clock(9, 30))
	allDay := allDayEvent(t, "Sync", feb3, feb3)
	mustAdd(t, c, timed)
	mustAdd(t, c, allDay)
	_, err := weekdaySeries(t, c, "Standup", 1)
	require.NoError(t, err)

	got, ok := c.Event("Sync", feb3, &nine)
	require.True(t, ok)
	assert.Same(t, timed, got)

	got, ok = c.Event("Sync", feb3, nil)
	require.True(t, ok)
	assert.Same(t, allDay, got)

	_, ok = c.Event("Standup", feb3, &nine)
	assert.False(t, ok, "instances are not searched")
	ten := clock(10, 0)
	_, ok = c.Event("Sync", feb3, &ten)
	assert.False(t, ok)
}

func TestUpdateEvent(t *testing.T) {
	c := newCalendar(t, calendar.RejectConflicts)
	a := timedEvent(t, "A", feb3, clock(8, 0), clock(9, 0))
	b := timedEvent(t, "B", feb3, clock(11, 0), clock(12, 0))
	mustAdd(t, c, a)
	mustAdd(t, c, b)

	ok, err := c.UpdateEvent(a, model.From(a).StartTime(clock(11, 30)).EndTime(clock(12, 30)))
	require.NoError(t, err)
	assert.False(t, ok, "would overlap B")

	ok, err = c.UpdateEvent(a, model.From(a).Subject("A moved").StartTime(clock(9, 0)).EndTime(clock(10, 0)))
	require.NoError(t, err)
	assert.True(t, ok)

	events := c.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "A moved", events[0].Subject(), "position is kept")
	assert.Equal(t, "A", a.Subject(), "original value is untouched")

	ok, err = c.UpdateEvent(a, model.From(a))
	require.NoError(t, err)
	assert.False(t, ok, "a is no longer stored")

	stranger := timedEvent(t, "B", feb3, clock(11, 0), clock(12, 0))
	ok, err = c.UpdateEvent(stranger, model.From(stranger))
	require.NoError(t, err)
	assert.False(t, ok, "membership is by identity")

	_, err = c.UpdateEvent(events[0], model.From(events[0]).Subject(""))
	assert.ErrorIs(t, err, model.ErrSubjectRequired)
	_, err = c.UpdateEvent(events[0], nil)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestUpdateEvent_SeriesNotRechecked(t *testing.T) {
	c := newCalendar(t, calendar.RejectConflicts)
	lunch := timedEvent(t, "Lunch", feb3, clock(12, 0), clock(13, 0))
	mustAdd(t, c, lunch)
	_, err := weekdaySeries(t, c, "Standup", 5)
	require.NoError(t, err)

	ok, err := c.UpdateEvent(lunch, model.From(lunch).StartTime(clock(9, 0)).EndTime(clock(10, 0)))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRemove(t *testing.T) {
	c := newCalendar(t, calendar.RejectConflicts)
	lunch := timedEvent(t, "Lunch", feb3, clock(12, 0), clock(13, 0))
	mustAdd(t, c, lunch)
	series, err := weekdaySeries(t, c, "Standup", 5)
	require.NoError(t, err)
	require.Len(t, c.AllEvents(), 6)

	assert.True(t, c.RemoveRecurringEvent(series))
	assert.False(t, c.RemoveRecurringEvent(series))
	assert.True(t, c.RemoveEvent(lunch))
	assert.False(t, c.RemoveEvent(lunch))
	assert.Empty(t, c.AllEvents())

	// Freed slots accept new events again.
	_, err = weekdaySeries(t, c, "Standup", 5)
	assert.NoError(t, err)
}

func TestAllEvents_Order(t *testing.T) {
	c := newCalendar(t, calendar.RejectConflicts)
	series, err := weekdaySeries(t, c, "Standup", 3)
	require.NoError(t, err)
	mustAdd(t, c, timedEvent(t, "Lunch", feb3, clock(12, 0), clock(13, 0)))

	all := c.AllEvents()
	require.Len(t, all, 4)
	assert.Equal(t, "Lunch", all[0].Subject())
	for i, inst := range series.Instances() {
		assert.Same(t, inst, all[i+1])
	}
}

func TestModifiedInstanceSeenThroughCalendar(t *testing.T) {
	c := newCalendar(t, calendar.RejectConflicts)
	series, err := weekdaySeries(t, c, "Standup", 5)
	require.NoError(t, err)
	tue := feb3.AddDays(1)

	require.NoError(t, series.ModifyInstance(tue, model.NewBuilder().Subject("Demo").StartDate(tue).
		StartTime(clock(15, 0)).EndTime(clock(16, 0))))

	assert.False(t, c.IsBusy(tue, clock(9, 30)))
	assert.True(t, c.IsBusy(tue, clock(15, 30)))
	got := c.EventsOnDate(tue)
	require.Len(t, got, 1)
	assert.Equal(t, "Demo", got[0].Subject())
	assert.Equal(t, "Standup", c.EventsOnDate(feb3)[0].Subject())
}

func TestConflictPolicy_Text(t *testing.T) {
	var p calendar.ConflictPolicy
	require.NoError(t, p.UnmarshalText([]byte("allow_conflicts")))
	assert.Equal(t, calendar.AllowConflicts, p)
	require.NoError(t, p.UnmarshalText([]byte("REJECT")))
	assert.Equal(t, calendar.RejectConflicts, p)
	assert.ErrorIs(t, p.UnmarshalText([]byte("sometimes")), model.ErrInvalidArgument)

	text, err := calendar.AllowConflicts.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "ALLOW_CONFLICTS", string(text))
}

func TestIsBusy_OpenEndedNearMidnight(t *testing.T) {
	c := newCalendar(t, calendar.RejectConflicts)
	e, err := model.NewBuilder().Subject("Launch").StartDate(feb3).StartTime(clock(23, 30)).Build()
	require.NoError(t, err)
	mustAdd(t, c, e)

	assert.True(t, c.IsBusy(feb3, clock(23, 45)))
	assert.False(t, c.IsBusy(feb3, clock(23, 0)))
}
