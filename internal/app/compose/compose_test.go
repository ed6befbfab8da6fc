package compose

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fankeji/debtbook/internal/domain"
)

func incomingRecord() domain.DebtRecord {
	return domain.DebtRecord{
		ID: 1, Type: domain.Incoming, Name: "张三",
		Amount: domain.AmountFromInt(500), DueDate: "2023-12-31", DueTime: "18:00",
		Reason: "聚餐垫付",
	}
}

func outgoingRecord() domain.DebtRecord {
	return domain.DebtRecord{
		ID: 3, Type: domain.Outgoing, Name: "韩梅梅",
		Amount: domain.AmountFromInt(1000), DueDate: "2024-05-20", DueTime: "09:00",
	}
}

// ─── Templates ──────────────────────────────────────────────────────────────

func TestReminder(t *testing.T) {
	got := Reminder(incomingRecord())
	want := "张三，借给你的500元（原因：聚餐垫付）记得在2023-12-31 18:00前还哦。"
	if got != want {
		t.Errorf("Reminder() = %q, want %q", got, want)
	}
}

func TestReminder_NoReasonFallback(t *testing.T) {
	rec := incomingRecord()
	rec.Reason = ""
	if got := Reminder(rec); !strings.Contains(got, "（原因：无备注）") {
		t.Errorf("Reminder() = %q, want 无备注 fallback", got)
	}
}

func TestCommitment(t *testing.T) {
	form := domain.CommitmentForm{
		MyName:         "李雷",
		IDCard:         "110101199001011234",
		IncludePenalty: true,
		Penalty:        "赔偿违约金",
	}
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	got := Commitment(outgoingRecord(), form, now)

	for _, want := range []string{
		"借款承诺书",
		"李雷",
		"110101199001011234",
		"2024-05-20",
		"韩梅梅",
		"1,000",
		"违约责任：若未按时归还，本人愿赔偿违约金。",
		"承诺人：李雷",
		"日期：2024/05/01",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Commitment() missing %q:\n%s", want, got)
		}
	}
}

func TestCommitment_BlanksAndNoPenalty(t *testing.T) {
	got := Commitment(outgoingRecord(), domain.CommitmentForm{}, time.Now())
	if !strings.Contains(got, "本人 ___ ") {
		t.Errorf("Commitment() should blank out a missing signer:\n%s", got)
	}
	if !strings.Contains(got, "__________________") {
		t.Errorf("Commitment() should blank out a missing id number:\n%s", got)
	}
	if strings.Contains(got, "违约责任") {
		t.Errorf("Commitment() must omit the liability clause when not requested:\n%s", got)
	}
}

func TestUserPrompt(t *testing.T) {
	got := UserPrompt(incomingRecord(), domain.AudienceColleague, domain.StyleHumorous)
	for _, want := range []string{`"同事"`, `"幽默"`, "张三，你借的500元（原因：聚餐垫付）该还了。", "100字内"} {
		if !strings.Contains(got, want) {
			t.Errorf("UserPrompt() missing %q: %s", want, got)
		}
	}
}

// ─── AI Rewrite ─────────────────────────────────────────────────────────────

type fakeChat struct {
	mu    sync.Mutex
	calls int
	// complete is invoked per call; may block to simulate slow responses.
	complete func(call int, userPrompt string) (string, error)
}

func (f *fakeChat) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()
	if systemPrompt != SystemPrompt {
		return "", errors.New("wrong system prompt")
	}
	return f.complete(n, userPrompt)
}

func (f *fakeChat) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestSessionRewrite_Success(t *testing.T) {
	chat := &fakeChat{complete: func(int, string) (string, error) {
		return "张三老友，记得还钱呀～", nil
	}}
	sess := NewSession(New(chat), incomingRecord(), domain.UserProfile{})

	got, err := sess.Rewrite(context.Background(), domain.AudienceFriend, domain.StyleHumorous)
	if err != nil {
		t.Fatalf("Rewrite() error: %v", err)
	}
	if got != "张三老友，记得还钱呀～" {
		t.Errorf("Rewrite() = %q", got)
	}
	if msg := sess.Message(time.Now()); msg != got {
		t.Errorf("Message() = %q, want AI text to win for incoming", msg)
	}
}

func TestSessionRewrite_FailureKeepsTemplate(t *testing.T) {
	chat := &fakeChat{complete: func(int, string) (string, error) {
		return "", errors.New("rate limited")
	}}
	sess := NewSession(New(chat), incomingRecord(), domain.UserProfile{})

	_, err := sess.Rewrite(context.Background(), "", "")
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("Rewrite() error = %v, want rate limited", err)
	}
	// Prior message state unchanged: the template remains the fallback.
	if msg := sess.Message(time.Now()); msg != Reminder(incomingRecord()) {
		t.Errorf("Message() = %q, want template fallback", msg)
	}
	if sess.Generating() {
		t.Error("Generating() should be false after the call resolves")
	}
}

func TestSessionRewrite_StaleResponseDiscarded(t *testing.T) {
	release := make(chan struct{})
	chat := &fakeChat{complete: func(call int, _ string) (string, error) {
		if call == 1 {
			<-release // first response arrives late
			return "旧回复", nil
		}
		return "新回复", nil
	}}
	sess := NewSession(New(chat), incomingRecord(), domain.UserProfile{})

	errc := make(chan error, 1)
	go func() {
		_, err := sess.Rewrite(context.Background(), domain.AudienceFriend, "")
		errc <- err
	}()

	// Wait until the first request has taken its sequence number and is
	// blocked in flight.
	for chat.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}
	if !sess.Generating() {
		t.Error("Generating() should be true while a rewrite is pending")
	}

	if _, err := sess.Rewrite(context.Background(), domain.AudienceSuperior, ""); err != nil {
		t.Fatalf("second Rewrite() error: %v", err)
	}
	close(release)

	if err := <-errc; !errors.Is(err, domain.ErrSuperseded) {
		t.Errorf("first Rewrite() error = %v, want ErrSuperseded", err)
	}
	if msg := sess.Message(time.Now()); msg != "新回复" {
		t.Errorf("Message() = %q, stale response must not overwrite the newer one", msg)
	}
}

func TestSessionRewrite_ReissuesEveryCall(t *testing.T) {
	chat := &fakeChat{complete: func(call int, _ string) (string, error) {
		return "回复", nil
	}}
	sess := NewSession(New(chat), incomingRecord(), domain.UserProfile{})

	sess.Rewrite(context.Background(), domain.AudienceFriend, "")
	sess.Rewrite(context.Background(), domain.AudienceFriend, "")
	if chat.calls != 2 {
		t.Errorf("calls = %d, want 2 (no caching, no dedup)", chat.calls)
	}
}

func TestSessionMessage_OutgoingIgnoresAIText(t *testing.T) {
	chat := &fakeChat{complete: func(int, string) (string, error) { return "AI文案", nil }}
	sess := NewSession(New(chat), outgoingRecord(), domain.UserProfile{Name: "李雷", IDCard: "110101"})

	sess.Rewrite(context.Background(), "", "")
	if msg := sess.Message(time.Now()); !strings.Contains(msg, "借款承诺书") {
		t.Errorf("Message() = %q, outgoing records always use the commitment statement", msg)
	}
}

func TestComposer_NilChat(t *testing.T) {
	c := New(nil)
	if _, err := c.Rewrite(context.Background(), incomingRecord(), domain.AudienceFriend, domain.StyleNormal); !errors.Is(err, domain.ErrChatUnavailable) {
		t.Errorf("Rewrite() error = %v, want ErrChatUnavailable", err)
	}
}
