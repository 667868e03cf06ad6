package components

import (
	"sync/atomic"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"

	"github.com/borgmon/nudge/pkg/models"
)

func TestHoldButtonCompletesAfterHold(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	var done atomic.Int32
	b := NewHoldButton("Dismiss", 150*time.Millisecond, func() { done.Add(1) })
	w := test.NewWindow(b)
	defer w.Close()

	b.Press()
	assert.Eventually(t, func() bool { return done.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1.0, b.Progress())
}

func TestHoldButtonReleaseResets(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	var done atomic.Int32
	b := NewHoldButton("Dismiss", time.Second, func() { done.Add(1) })
	w := test.NewWindow(b)
	defer w.Close()

	b.Press()
	time.Sleep(120 * time.Millisecond)
	b.Release()

	assert.Zero(t, b.Progress())
	time.Sleep(1200 * time.Millisecond)
	assert.Zero(t, done.Load())
}

func TestAlarmListCancelSelected(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	var cancelled []string
	al, content := NewAlarmList(func(id string) bool {
		cancelled = append(cancelled, id)
		return true
	})
	w := test.NewWindow(content)
	defer w.Close()

	now := time.Now()
	al.SetAlarms([]models.Alarm{
		{ID: "alarm-1-aaaaaaaa", TargetTime: now.Add(time.Hour), Description: "tea", IsActive: true},
		{ID: "alarm-2-bbbbbbbb", TargetTime: now.Add(2 * time.Hour), Description: "walk", IsActive: true},
	})

	al.CancelSelected()
	assert.Empty(t, cancelled, "nothing selected")

	al.Select(1)
	al.CancelSelected()
	assert.Equal(t, []string{"alarm-2-bbbbbbbb"}, cancelled)
	assert.False(t, al.data[1].IsActive)
	assert.True(t, al.data[0].IsActive)
}

func TestFormatAlarm(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.Local)

	tests := []struct {
		name  string
		alarm models.Alarm
		want  string
	}{
		{
			name:  "today",
			alarm: models.Alarm{TargetTime: now.Add(90 * time.Minute), Description: "stretch", IsActive: true},
			want:  "10:30 AM  stretch  (scheduled)",
		},
		{
			name:  "another day",
			alarm: models.Alarm{TargetTime: now.Add(24 * time.Hour), Description: "trash", IsActive: true},
			want:  "Fri Oct 16, 9:00 AM  trash  (scheduled)",
		},
		{
			name:  "fired",
			alarm: models.Alarm{TargetTime: now.Add(-time.Minute), Description: "tea"},
			want:  "8:59 AM  tea  (done)",
		},
		{
			name:  "cancelled",
			alarm: models.Alarm{TargetTime: now.Add(time.Minute), Description: "tea"},
			want:  "9:01 AM  tea  (cancelled)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAlarm(tt.alarm, now))
		})
	}
}
