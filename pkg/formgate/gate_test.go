package formgate

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-portfolio/pkg/notify"
	"github.com/goliatone/go-portfolio/pkg/record"
)

type stubAdder struct {
	calls []Values
	err   error
	next  int
}

func (a *stubAdder) Add(_ context.Context, name, email, phone string) (record.Record, error) {
	a.calls = append(a.calls, Values{FieldName: name, FieldEmail: email, FieldPhone: phone})
	if a.err != nil {
		return record.Record{}, a.err
	}
	a.next++
	return record.Record{ID: 3 + a.next, Name: name, Email: email, Phone: phone}, nil
}

type stubNotifier struct {
	messages []string
	kinds    []notify.Kind
}

func (n *stubNotifier) Notify(message string, kind notify.Kind) notify.Notification {
	n.messages = append(n.messages, message)
	n.kinds = append(n.kinds, kind)
	return notify.Notification{Message: message, Kind: kind}
}

func newTestGate(t *testing.T, adder Adder, opts ...Option) *Gate {
	t.Helper()
	gate, err := New(adder, opts...)
	if err != nil {
		t.Fatalf("new gate: %v", err)
	}
	return gate
}

func validValues() Values {
	return Values{FieldName: "Ann", FieldEmail: "a@b.co", FieldPhone: "+7 (999) 123-45-67"}
}

func TestNew_RequiresAdder(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNoAdder) {
		t.Fatalf("expected ErrNoAdder, got %v", err)
	}
}

func TestIsEmail(t *testing.T) {
	cases := map[string]bool{
		"a@b.co":           true,
		"alex@example.com": true,
		"bad-email":        false,
		"a@b":              false,
		"a b@c.d":          false,
		"a@@b.co":          false,
		"a\u00a0b@c.co":    false,
		"a@b\u2003x.co":    false,
		"a@b.c\u3000o":     false,
	}
	for input, want := range cases {
		if got := IsEmail(input); got != want {
			t.Fatalf("IsEmail(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestIsPhone(t *testing.T) {
	cases := map[string]bool{
		"+7 (999) 123-45-67": true,
		"89991234567":        true,
		"8-999-123-45-67":    true,
		"999 123 45 67":      true,
		"+7 (499) 555-55-55": true,
		"123":                false,
		"+7 (199) 123-45-67": false,
		"+1 (999) 123-45-67": false,

		"+7\u00a0(999)\u00a0123-45-67":  true,
		"999\u2003123\u200345\u200367":  true,
		"+7\u00a0\u00a0(999) 123-45-67": false,
	}
	for input, want := range cases {
		if got := IsPhone(input); got != want {
			t.Fatalf("IsPhone(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestValidate_ChecksFieldsIndependently(t *testing.T) {
	gate := newTestGate(t, &stubAdder{})

	errs := gate.Validate(Values{FieldName: "   ", FieldEmail: "bad-email", FieldPhone: ""})
	got := map[string]string{}
	for field, fe := range errs {
		got[field] = fe.Key
	}
	want := map[string]string{
		FieldName:  KeyNameRequired,
		FieldEmail: KeyEmailInvalid,
		FieldPhone: KeyPhoneRequired,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("error keys mismatch (-want +got):\n%s", diff)
	}
	if errs[FieldEmail].Message != "Введите корректный email адрес" {
		t.Fatalf("unexpected email message %q", errs[FieldEmail].Message)
	}
}

func TestSubmit_BlankNameRejectsWithoutAdding(t *testing.T) {
	adder := &stubAdder{}
	notifier := &stubNotifier{}
	gate := newTestGate(t, adder, WithNotifier(notifier))

	values := validValues()
	values[FieldName] = ""
	res, err := gate.Submit(context.Background(), values)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if diff := cmp.Diff([]string{FieldName}, res.Errors.Fields()); diff != "" {
		t.Fatalf("expected exactly the name error (-want +got):\n%s", diff)
	}
	if res.Errors[FieldName].Message != "Имя обязательно для заполнения" {
		t.Fatalf("unexpected name message %q", res.Errors[FieldName].Message)
	}
	if len(adder.calls) != 0 {
		t.Fatalf("adder called on invalid submission")
	}
	if len(notifier.messages) != 0 || res.Reset || res.Record != nil {
		t.Fatalf("invalid submission produced side effects: %#v", res)
	}
}

func TestSubmit_ValidAddsNormalizedRecordAndNotifies(t *testing.T) {
	adder := &stubAdder{}
	notifier := &stubNotifier{}
	gate := newTestGate(t, adder, WithNotifier(notifier))

	// "e" followed by a combining acute accent composes to U+00E9 under NFC.
	res, err := gate.Submit(context.Background(), Values{
		FieldName:  "  Rene\u0301  ",
		FieldEmail: " a@b.co ",
		FieldPhone: "+7 (999) 123-45-67",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.Valid() || !res.Reset || res.Record == nil || res.Record.ID != 4 {
		t.Fatalf("unexpected result %#v", res)
	}
	want := []Values{{FieldName: "Ren\u00e9", FieldEmail: "a@b.co", FieldPhone: "+7 (999) 123-45-67"}}
	if diff := cmp.Diff(want, adder.calls); diff != "" {
		t.Fatalf("adder calls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Запись успешно добавлена!"}, notifier.messages); diff != "" {
		t.Fatalf("notifications mismatch (-want +got):\n%s", diff)
	}
	if notifier.kinds[0] != notify.KindSuccess {
		t.Fatalf("expected success banner, got %q", notifier.kinds[0])
	}
}

func TestSubmit_AdderFailureSurfaces(t *testing.T) {
	boom := errors.New("disk full")
	notifier := &stubNotifier{}
	gate := newTestGate(t, &stubAdder{err: boom}, WithNotifier(notifier))

	res, err := gate.Submit(context.Background(), validValues())
	if !errors.Is(err, boom) {
		t.Fatalf("expected adder error, got %v", err)
	}
	if res.Reset || len(notifier.messages) != 0 {
		t.Fatalf("failed add must not reset or notify")
	}
	if res.Values[FieldName] != "Ann" {
		t.Fatalf("expected values kept for redisplay, got %#v", res.Values)
	}
}

func TestGate_EnglishLocale(t *testing.T) {
	gate := newTestGate(t, &stubAdder{}, WithLocale("en"))
	errs := gate.Validate(Values{FieldName: "x", FieldEmail: "x@y.z", FieldPhone: "123"})
	if errs[FieldPhone].Message != "Enter a valid phone number" {
		t.Fatalf("unexpected message %q", errs[FieldPhone].Message)
	}
}

func TestWithRules_ReplacesTable(t *testing.T) {
	gate := newTestGate(t, &stubAdder{}, WithRules(Rule{Field: FieldName, RequiredKey: KeyNameRequired}))
	errs := gate.Validate(Values{FieldName: "ok"})
	if len(errs) != 0 {
		t.Fatalf("expected custom rules to skip email/phone, got %#v", errs)
	}
}
