package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris/zeroism/internal/llm"
	"github.com/chris/zeroism/internal/records"
)

const chat = "chat-1"

var (
	wednesday = time.Date(2026, 10, 14, 7, 0, 0, 0, time.UTC)
	sunday    = time.Date(2026, 10, 18, 7, 0, 0, 0, time.UTC)
)

type fakeOracle struct {
	mu         sync.Mutex
	imageCalls [][]llm.Image
	images     func(instructions string) (string, error)
	text       func(text string) (string, error)
}

func (f *fakeOracle) DescribeImages(_ context.Context, images []llm.Image, instructions string) (string, error) {
	f.mu.Lock()
	f.imageCalls = append(f.imageCalls, images)
	f.mu.Unlock()
	if f.images == nil {
		return "", fmt.Errorf("%w: offline", llm.ErrOracle)
	}
	return f.images(instructions)
}

func (f *fakeOracle) EstimateFromText(_ context.Context, text, _ string) (string, error) {
	if f.text == nil {
		return "", fmt.Errorf("%w: offline", llm.ErrOracle)
	}
	return f.text(text)
}

type fakeSauna struct{ n int }

func (f fakeSauna) SaunaCount(context.Context) (int, error) { return f.n, nil }

type fakeBriefing struct{}

func (fakeBriefing) Morning(context.Context, time.Time) string { return "Las Palmas: +24°C Sunny" }

type harness struct {
	engine  *Engine
	backend *records.MemoryBackend
	oracle  *fakeOracle
	t       *testing.T
}

func newHarness(t *testing.T, now time.Time, backend records.Backend) *harness {
	t.Helper()
	store := records.NewStore(backend)
	mem, _ := backend.(*records.MemoryBackend)
	if mem != nil {
		require.NoError(t, store.EnsureTables(context.Background()))
	}
	clock := func() time.Time { return now }
	oracle := &fakeOracle{}
	deps := Deps{
		Journal:          records.NewJournal(store, clock),
		Oracle:           oracle,
		Briefing:         fakeBriefing{},
		Sauna:            fakeSauna{n: 2},
		SleepScreenshots: 9,
	}
	return &harness{
		engine:  New(deps, NewConversations(20, 50000), time.UTC, clock),
		backend: mem,
		oracle:  oracle,
		t:       t,
	}
}

func (h *harness) start(kind Kind) string {
	h.t.Helper()
	reply, err := h.engine.Start(context.Background(), chat, kind)
	require.NoError(h.t, err)
	return reply
}

func (h *harness) send(text string) string {
	h.t.Helper()
	reply, ok := h.engine.Handle(context.Background(), chat, Input{Text: text})
	require.True(h.t, ok, "no active flow for %q", text)
	return reply
}

func (h *harness) photo() string {
	h.t.Helper()
	reply, ok := h.engine.Handle(context.Background(), chat, Input{Images: []llm.Image{{MediaType: "image/jpeg", Data: []byte{0xff, 0xd8}}}})
	require.True(h.t, ok)
	return reply
}

func (h *harness) step() StepID {
	_, id, ok := h.engine.Active(chat)
	if !ok {
		return ""
	}
	return id
}

// dataRows returns a table's rows without the header.
func (h *harness) dataRows(table string) [][]string {
	return h.backend.Rows(table)[1:]
}

func (h *harness) assertNoData() {
	h.t.Helper()
	for _, tbl := range records.Tables {
		assert.Empty(h.t, h.dataRows(tbl.Name), tbl.Name)
	}
}

func TestStartEmitsFirstPrompt(t *testing.T) {
	h := newHarness(t, wednesday, records.NewMemoryBackend())
	reply := h.start(Morning)
	assert.Contains(t, reply, "Las Palmas: +24°C Sunny")
	assert.Contains(t, reply, "9 sleep tracker screenshots")
	assert.Equal(t, SleepScreenshots, h.step())

	_, err := h.engine.Start(context.Background(), chat, Kind("weekly"))
	assert.Error(t, err)
}

func TestStartResetsScratchAndPending(t *testing.T) {
	h := newHarness(t, wednesday, records.NewMemoryBackend())
	h.start(Evening)
	h.send("8500 420")
	c := h.engine.convs.Get(chat)
	require.True(t, c.scratch.HasSteps)

	h.start(Morning)
	h.photo()
	h.photo()
	assert.Len(t, c.pending, 2)
	assert.Equal(t, Scratch{}, c.scratch)

	h.start(Morning)
	assert.Empty(t, c.pending)
	assert.Equal(t, SleepScreenshots, h.step())
	assert.Empty(t, h.oracle.imageCalls)
}

func TestStartReplacesActiveFlow(t *testing.T) {
	h := newHarness(t, wednesday, records.NewMemoryBackend())
	h.start(Morning)
	h.send("skip")
	require.Equal(t, Subjective, h.step())

	h.start(Evening)
	kind, step, ok := h.engine.Active(chat)
	require.True(t, ok)
	assert.Equal(t, Evening, kind)
	assert.Equal(t, ActivityStep, step)
}

func TestAllSkipsReachSummary(t *testing.T) {
	for _, kind := range []Kind{Morning, Evening, Monthly} {
		t.Run(string(kind), func(t *testing.T) {
			h := newHarness(t, wednesday, records.NewMemoryBackend())
			h.start(kind)
			n := len(h.engine.flows[kind].Steps)
			var reply string
			for i := 0; i < n; i++ {
				reply = h.send("skip")
			}
			assert.Contains(t, reply, "COMPLETE")
			assert.Equal(t, StepID(""), h.step())
			h.assertNoData()

			_, ok := h.engine.Handle(context.Background(), chat, Input{Text: "skip"})
			assert.False(t, ok)
		})
	}
}

func TestMorningNineScreenshots(t *testing.T) {
	h := newHarness(t, wednesday, records.NewMemoryBackend())
	h.oracle.images = func(string) (string, error) {
		return "Here you go:\n```json\n{\"sleep_score\": \"84\", \"sleeping_hrv\": \"62\", \"deep_min\": \"\"}\n```", nil
	}
	h.start(Morning)
	for i := 1; i < 9; i++ {
		assert.Contains(t, h.photo(), fmt.Sprintf("Got %d/9", i))
	}
	assert.Empty(t, h.oracle.imageCalls)

	reply := h.photo()
	require.Len(t, h.oracle.imageCalls, 1)
	assert.Len(t, h.oracle.imageCalls[0], 9)
	assert.Contains(t, reply, "Sleep score: 84")
	assert.Equal(t, Subjective, h.step())

	for range h.engine.flows[Morning].Steps[1:] {
		reply = h.send("skip")
	}
	assert.Contains(t, reply, "Sleep score: 84")
	assert.Contains(t, reply, "Solid sleep")

	rows := h.dataRows(records.Health.Name)
	require.Len(t, rows, 1)
	assert.Equal(t, "2026-10-14", rows[0][0])
	assert.Equal(t, "84", rows[0][records.Health.Index("sleep_score")])
	assert.Equal(t, "62", rows[0][records.Health.Index("sleeping_hrv")])
	for _, tbl := range records.Tables[1:] {
		assert.Empty(t, h.dataRows(tbl.Name), tbl.Name)
	}
}

func TestScreenshotsClosedEarly(t *testing.T) {
	h := newHarness(t, wednesday, records.NewMemoryBackend())
	h.oracle.images = func(string) (string, error) { return `{"sleep_score": "91"}`, nil }
	h.start(Morning)
	h.photo()
	h.photo()
	reply := h.send("done")
	require.Len(t, h.oracle.imageCalls, 1)
	assert.Len(t, h.oracle.imageCalls[0], 2)
	assert.Contains(t, reply, "How did you sleep?")
	assert.Equal(t, "91", h.engine.convs.Get(chat).scratch.SleepScore)
}

func TestScreenshotsDoneWithoutImages(t *testing.T) {
	h := newHarness(t, wednesday, records.NewMemoryBackend())
	h.start(Morning)
	reply := h.send("done")
	assert.Contains(t, reply, "No screenshots")
	assert.Equal(t, Subjective, h.step())
	assert.Empty(t, h.oracle.imageCalls)
}

func TestOracleFailureProceedsWithEmptyRecord(t *testing.T) {
	for name, answer := range map[string]func(string) (string, error){
		"error":     nil,
		"undecoded": func(string) (string, error) { return "I can't read these, sorry.", nil },
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, wednesday, records.NewMemoryBackend())
			h.oracle.images = answer
			h.start(Morning)
			h.photo()
			reply := h.send("done")
			assert.Contains(t, reply, "Couldn't extract sleep data")
			assert.Equal(t, Subjective, h.step())
			assert.Len(t, h.oracle.imageCalls, 1)
			assert.Empty(t, h.dataRows(records.Health.Name))
		})
	}
}

func TestInputKindMismatchStays(t *testing.T) {
	h := newHarness(t, wednesday, records.NewMemoryBackend())
	h.start(Morning)
	assert.Contains(t, h.send("slept great"), "Please send screenshots")
	assert.Equal(t, SleepScreenshots, h.step())

	h.send("skip")
	assert.Contains(t, h.photo(), "needs a text answer")
	assert.Equal(t, Subjective, h.step())
}

func TestUnparsedAnswerAdvances(t *testing.T) {
	h := newHarness(t, wednesday, records.NewMemoryBackend())
	h.start(Morning)
	h.send("skip")
	reply := h.send("7 6")
	assert.Contains(t, reply, "Couldn't read that for how you slept")
	assert.Contains(t, reply, "need 8 values")
	assert.Contains(t, reply, "Sleep environment")
	assert.Equal(t, Environment, h.step())
	assert.Empty(t, h.dataRows(records.Health.Name))
}

func TestMorningAnswersLandInOneRow(t *testing.T) {
	h := newHarness(t, wednesday, records.NewMemoryBackend())
	h.start(Morning)
	h.send("skip")
	h.send("7 6 5 8 7 ja 1 schnell")
	h.send("9 8 nein nein 19")
	assert.Contains(t, h.send("ja ja 14:30 ja 23:10"), "2 of 5 cutoffs missed")
	assert.Contains(t, h.send("25"), "2026-10-13")
	h.send("nein omega nac")
	h.send("73.5 36.8")
	reply := h.send("7 6 8")
	assert.Contains(t, reply, "Sleep score: ?")

	rows := h.dataRows(records.Health.Name)
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "7", row[records.Health.Index("rested")])
	assert.Equal(t, "6.6", row[records.Health.Index("subjective_avg")])
	assert.Equal(t, "9", row[records.Health.Index("darkness")])
	assert.Equal(t, "14:30", row[records.Health.Index("caffeine_time")])
	assert.Equal(t, "73.5", row[records.Health.Index("weight")])
	assert.Empty(t, row[records.Health.Index("sleep_score")])
	assert.Empty(t, row[records.Health.Index("bp_sys")])

	habits := h.dataRows(records.Habits.Name)
	require.Len(t, habits, 1)
	assert.Equal(t, "2026-10-13", habits[0][0])
	assert.Equal(t, "25", habits[0][records.Habits.Index("reading")])

	supps := h.dataRows(records.Supplements.Name)
	require.Len(t, supps, 1)
	assert.Equal(t, []string{"2026-10-14", "NO", "YES", "NO", "NO", "YES", ""}, supps[0])

	mood := h.dataRows(records.Mood.Name)
	require.Len(t, mood, 1)
	assert.Equal(t, "morning", mood[0][1])
	assert.Equal(t, "8", mood[0][records.Mood.Index("motivation")])
}

func TestSundayVitalsAsksForBloodPressure(t *testing.T) {
	h := newHarness(t, sunday, records.NewMemoryBackend())
	h.start(Morning)
	var reply string
	for i := 0; i < 6; i++ {
		reply = h.send("skip")
	}
	require.Equal(t, Vitals, h.step())
	assert.Contains(t, reply, "weight ear_temp sys dia")

	reply = h.send("73.5 36.8 118 75")
	assert.Contains(t, reply, "BP 118/75")
	row := h.dataRows(records.Health.Name)[0]
	assert.Equal(t, "118", row[records.Health.Index("bp_sys")])
	assert.Equal(t, "75", row[records.Health.Index("bp_dia")])

	// two values are not enough on Sunday
	h.start(Morning)
	for i := 0; i < 6; i++ {
		h.send("skip")
	}
	assert.Contains(t, h.send("74 36.6"), "Couldn't read that for vitals")
	assert.Equal(t, MorningMood, h.step())
}

func TestWeekdayVitalsSkipsBloodPressure(t *testing.T) {
	h := newHarness(t, wednesday, records.NewMemoryBackend())
	h.start(Morning)
	var reply string
	for i := 0; i < 6; i++ {
		reply = h.send("skip")
	}
	assert.Contains(t, reply, "`weight ear_temp`")
	assert.NotContains(t, reply, "sys dia")
	h.send("73.5 36.8 118 75")
	row := h.dataRows(records.Health.Name)[0]
	assert.Equal(t, "73.5", row[records.Health.Index("weight")])
	assert.Empty(t, row[records.Health.Index("bp_sys")])
}

func TestExerciseDoneFirstAdvancesToMeals(t *testing.T) {
	h := newHarness(t, wednesday, records.NewMemoryBackend())
	h.start(Evening)
	h.send("skip")
	require.Equal(t, ExerciseStep, h.step())

	reply := h.send("done")
	assert.Contains(t, reply, "Meals:")
	assert.Equal(t, MealsStep, h.step())
	assert.Empty(t, h.dataRows(records.Exercise.Name))
}

func TestExerciseLoop(t *testing.T) {
	h := newHarness(t, wednesday, records.NewMemoryBackend())
	h.start(Evening)
	h.send("skip")

	reply := h.send("gym 45 push 8, sauna 20 80 3x7")
	assert.Contains(t, reply, "Sauna this week: 2/4")
	assert.Contains(t, reply, "More training?")
	assert.Equal(t, ExerciseStep, h.step())

	reply = h.send("walk 30, juggling")
	assert.Contains(t, reply, "not recognised: juggling")
	assert.Equal(t, ExerciseStep, h.step())

	h.send("nein")
	assert.Equal(t, MealsStep, h.step())

	rows := h.dataRows(records.Exercise.Name)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Gym", "45"}, rows[0][2:4])
	assert.Equal(t, "push", rows[0][records.Exercise.Index("workout_type")])
	assert.Equal(t, "Sauna", rows[1][2])
	assert.Equal(t, "Walk", rows[2][2])
	assert.Equal(t, 3, h.engine.convs.Get(chat).scratch.Exercises)
}

func TestMealsLoopAccumulatesTotals(t *testing.T) {
	h := newHarness(t, wednesday, records.NewMemoryBackend())
	h.oracle.text = func(text string) (string, error) {
		if text == "mystery stew" {
			return "", errors.New("timeout")
		}
		return `{"ingredients": "oats, berries", "calories": "450", "protein": "20g"}`, nil
	}
	h.oracle.images = func(string) (string, error) {
		return `{"ingredients": "chicken, rice", "calories": "~700 kcal", "protein": "55"}`, nil
	}
	h.start(Evening)
	h.send("skip")
	h.send("done")
	require.Equal(t, MealsStep, h.step())

	reply := h.send("oats with berries | mystery stew")
	assert.Contains(t, reply, `No estimate for "mystery stew"`)
	assert.Equal(t, MealsStep, h.step())

	reply = h.photo()
	assert.Contains(t, reply, "Today so far: 1150 kcal, 75g protein")

	h.send("fertig")
	assert.Equal(t, LearningStep, h.step())

	rows := h.dataRows(records.Meals.Name)
	require.Len(t, rows, 3)
	assert.Equal(t, "1", rows[0][2])
	assert.Equal(t, "mystery stew", rows[1][records.Meals.Index("ingredients")])
	assert.Empty(t, rows[1][records.Meals.Index("calories")])
	assert.Equal(t, "3", rows[2][2])
}

func TestEveningFullRun(t *testing.T) {
	h := newHarness(t, wednesday, records.NewMemoryBackend())
	h.start(Evening)
	assert.Contains(t, h.send("8.500 420"), "8,500 steps")
	h.send("gym 45 push 8")
	h.send("done")
	h.send("done")
	h.send("golang 90 work 8")
	h.send("20 ja 10 5 7 2.5 sunny walk")
	h.send("nein")
	assert.Contains(t, h.send("12.50 food lunch n, 30 clothes shirt i"), "€42.50 total")
	reply := h.send("7 6 3 4 6")

	assert.Contains(t, reply, "EVENING REVIEW COMPLETE")
	assert.Contains(t, reply, "Steps: 8,500")
	assert.Contains(t, reply, "Sauna this week: 2/4")
	assert.Contains(t, reply, "Spent: €42.50")

	row := h.dataRows(records.Health.Name)[0]
	assert.Equal(t, "8500", row[records.Health.Index("steps")])
	assert.Equal(t, "420", row[records.Health.Index("active_calories")])
	assert.Len(t, h.dataRows(records.Learning.Name), 1)
	assert.Len(t, h.dataRows(records.Habits.Name), 1)
	assert.Empty(t, h.dataRows(records.Cravings.Name))
	assert.Len(t, h.dataRows(records.Finance.Name), 2)
	assert.Equal(t, "evening", h.dataRows(records.Mood.Name)[0][1])
}

func TestStoreFailureDoesNotAbort(t *testing.T) {
	h := newHarness(t, wednesday, records.Unavailable{})
	h.start(Evening)
	reply := h.send("8500 420")
	assert.Contains(t, reply, "Store unavailable: activity not saved")
	assert.Contains(t, reply, "Training today?")
	assert.Equal(t, ExerciseStep, h.step())

	reply = h.send("gym 45 push 8")
	assert.Contains(t, reply, "Store unavailable: exercise not saved")
	assert.Equal(t, ExerciseStep, h.step())
}

func TestAbort(t *testing.T) {
	h := newHarness(t, wednesday, records.NewMemoryBackend())
	h.start(Monthly)
	assert.Contains(t, h.send("Abbrechen"), "cancelled")
	assert.Equal(t, StepID(""), h.step())
	assert.False(t, h.engine.Abort(chat))

	h.start(Monthly)
	assert.True(t, h.engine.Abort(chat))
	assert.True(t, IsAbort(" /reset "))
	assert.False(t, IsAbort("skip"))
}

func TestMonthlyFlow(t *testing.T) {
	h := newHarness(t, wednesday, records.NewMemoryBackend())
	assert.Contains(t, h.start(Monthly), "October 2026")
	h.send("18,5 82")
	reply := h.send("48")
	assert.Contains(t, reply, "Captured: body fat 18.5%, waist 82 cm, VO2max 48")

	row := h.dataRows(records.Health.Name)[0]
	assert.Equal(t, "18.5", row[records.Health.Index("body_fat")])
	assert.Equal(t, "82", row[records.Health.Index("waist")])
	ex := h.dataRows(records.Exercise.Name)
	require.Len(t, ex, 1)
	assert.Equal(t, "VO2max", ex[0][2])
	assert.Equal(t, "48", ex[0][records.Exercise.Index("vo2max")])
}

func TestHandleWithoutFlow(t *testing.T) {
	h := newHarness(t, wednesday, records.NewMemoryBackend())
	_, ok := h.engine.Handle(context.Background(), chat, Input{Text: "weight 73.5"})
	assert.False(t, ok)
}

func TestConcurrentStartsAndReplies(t *testing.T) {
	h := newHarness(t, wednesday, records.NewMemoryBackend())
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = h.engine.Start(context.Background(), chat, Evening)
		}()
		go func() {
			defer wg.Done()
			h.engine.Handle(context.Background(), chat, Input{Text: "skip"})
		}()
	}
	wg.Wait()
	kind, _, ok := h.engine.Active(chat)
	if ok {
		assert.Equal(t, Evening, kind)
	}
}

func TestRecommendation(t *testing.T) {
	assert.Contains(t, Recommendation("92"), "Great sleep")
	assert.Contains(t, Recommendation("85"), "Great sleep")
	assert.Contains(t, Recommendation("70"), "Solid sleep")
	assert.Contains(t, Recommendation("87.5"), "Great sleep")
	assert.Contains(t, Recommendation("72.0"), "Solid sleep")
	assert.Contains(t, Recommendation("84,9"), "Solid sleep")
	assert.Contains(t, Recommendation("69"), "recovery")
	assert.Contains(t, Recommendation("69.9"), "recovery")
	assert.Contains(t, Recommendation(""), "recovery")
}

func TestHistoryBounded(t *testing.T) {
	convs := NewConversations(4, 50000)
	var msgs []llm.Message
	for i := 0; i < 10; i++ {
		msgs = append(msgs, llm.Message{Role: "user", Content: fmt.Sprint(i)})
	}
	convs.SaveHistory(chat, msgs)
	got := convs.History(chat)
	require.Len(t, got, 4)
	assert.Equal(t, "6", got[0].Content)

	got[0].Content = "changed"
	assert.Equal(t, "6", convs.History(chat)[0].Content)

	convs.ClearHistory(chat)
	assert.Empty(t, convs.History(chat))
}
