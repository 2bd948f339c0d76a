package wire

import (
	"errors"
	"testing"

	"github.com/tutu-network/gossipd/internal/domain"
	"google.golang.org/protobuf/encoding/protowire"
)

func testMember(id string) domain.Member {
	return domain.Member{
		ID:          id,
		Incarnation: 7,
		Address:     "10.1.2.3",
		SwimPort:    9638,
		GossipPort:  9639,
		Persistent:  true,
	}
}

func TestMember_Roundtrip(t *testing.T) {
	want := testMember("aaaa")
	want.Departed = true

	got, err := DecodeMember(EncodeMember(want))
	if err != nil {
		t.Fatalf("DecodeMember: %v", err)
	}
	if got != want {
		t.Errorf("roundtrip = %+v, want %+v", got, want)
	}
}

func TestDecodeMember_MissingID(t *testing.T) {
	m := testMember("aaaa")
	m.ID = ""
	_, err := DecodeMember(EncodeMember(m))
	var pm *domain.ProtocolMismatch
	if !errors.As(err, &pm) {
		t.Fatalf("err = %v, want a ProtocolMismatch", err)
	}
	if pm.Field != "member.id" {
		t.Errorf("mismatch field = %q, want member.id", pm.Field)
	}
}

// Unknown scalar fields are tolerated for forward compatibility.
func TestDecodeMember_IgnoresUnknownFields(t *testing.T) {
	b := EncodeMember(testMember("aaaa"))
	b = protowire.AppendTag(b, 99, protowire.VarintType)
	b = protowire.AppendVarint(b, 12345)

	got, err := DecodeMember(b)
	if err != nil {
		t.Fatalf("DecodeMember with unknown field: %v", err)
	}
	if got.ID != "aaaa" {
		t.Errorf("ID = %q, want aaaa", got.ID)
	}
}

func TestDecodeMember_MalformedBytes(t *testing.T) {
	if _, err := DecodeMember([]byte{0xff, 0xff, 0xff}); !errors.Is(err, domain.ErrDecode) {
		t.Errorf("err = %v, want ErrDecode", err)
	}
}

func TestMembership_Roundtrip(t *testing.T) {
	want := domain.Membership{Member: testMember("aaaa"), Health: domain.HealthSuspect}
	got, err := DecodeMembership(EncodeMembership(want))
	if err != nil {
		t.Fatalf("DecodeMembership: %v", err)
	}
	if got != want {
		t.Errorf("roundtrip = %+v, want %+v", got, want)
	}
}

func TestSwim_PingRoundtrip(t *testing.T) {
	forward := testMember("cccc")
	want := SwimMessage{
		Type: SwimPing,
		Membership: []domain.Membership{
			{Member: testMember("aaaa"), Health: domain.HealthAlive},
			{Member: testMember("bbbb"), Health: domain.HealthConfirmed},
		},
		From:      testMember("aaaa"),
		ForwardTo: &forward,
	}

	got, err := DecodeSwim(EncodeSwim(want))
	if err != nil {
		t.Fatalf("DecodeSwim: %v", err)
	}
	if got.Type != SwimPing || got.From != want.From {
		t.Errorf("decoded = %+v", got)
	}
	if got.ForwardTo == nil || *got.ForwardTo != forward {
		t.Errorf("ForwardTo = %+v, want %+v", got.ForwardTo, forward)
	}
	if len(got.Membership) != 2 {
		t.Fatalf("piggyback count = %d, want 2", len(got.Membership))
	}
	if got.Membership[1].Health != domain.HealthConfirmed {
		t.Errorf("piggyback[1] = %+v", got.Membership[1])
	}
}

func TestSwim_AckWithoutForwardTo(t *testing.T) {
	got, err := DecodeSwim(EncodeSwim(SwimMessage{Type: SwimAck, From: testMember("aaaa")}))
	if err != nil {
		t.Fatalf("DecodeSwim: %v", err)
	}
	if got.Type != SwimAck || got.ForwardTo != nil {
		t.Errorf("decoded = %+v, want an Ack with nil ForwardTo", got)
	}
}

func TestSwim_PingReqRoundtrip(t *testing.T) {
	want := SwimMessage{Type: SwimPingReq, From: testMember("aaaa"), Target: testMember("bbbb")}
	got, err := DecodeSwim(EncodeSwim(want))
	if err != nil {
		t.Fatalf("DecodeSwim: %v", err)
	}
	if got.From != want.From || got.Target != want.Target {
		t.Errorf("decoded = %+v", got)
	}
}

func TestDecodeSwim_UnknownType(t *testing.T) {
	var b []byte
	b = appendVarintField(b, swimType, 9)
	b = appendBytesField(b, swimPayload, encodePingAck(testMember("aaaa"), nil))

	_, err := DecodeSwim(b)
	var pm *domain.ProtocolMismatch
	if !errors.As(err, &pm) || pm.Field != "swim.type" {
		t.Errorf("err = %v, want ProtocolMismatch on swim.type", err)
	}
}

func TestDecodeSwim_MissingPayload(t *testing.T) {
	var b []byte
	b = appendVarintField(b, swimType, uint64(SwimPing))

	_, err := DecodeSwim(b)
	var pm *domain.ProtocolMismatch
	if !errors.As(err, &pm) || pm.Field != "swim.payload" {
		t.Errorf("err = %v, want ProtocolMismatch on swim.payload", err)
	}
}

func TestRumor_RoundtripAllVariants(t *testing.T) {
	variants := []domain.Rumor{
		domain.MembershipRumor{Membership: domain.Membership{Member: testMember("aaaa"), Health: domain.HealthSuspect}},
		domain.ServiceRumor{MemberID: "aaaa", ServiceGroup: "web.prod", Incarnation: 3, PackageIdent: "core/web/1.0.0", ConfigPayload: []byte("cfg")},
		domain.ServiceConfigRumor{FromID: "aaaa", ServiceGroup: "web.prod", Incarnation: 2, Encrypted: true, Config: []byte("port = 80")},
		domain.ServiceFileRumor{FromID: "aaaa", ServiceGroup: "web.prod", Incarnation: 1, Filename: "tls.pem", Body: []byte("pem")},
		domain.ElectionRumor{FromID: "aaaa", MemberID: "bbbb", ServiceGroup: "web.prod", Term: 4, Suitability: 9, Status: domain.ElectionFinished, Votes: []string{"aaaa", "bbbb"}},
		domain.ElectionUpdateRumor{ElectionRumor: domain.ElectionRumor{FromID: "aaaa", MemberID: "aaaa", ServiceGroup: "web.prod", Term: 5, Status: domain.ElectionRunning, Votes: []string{"aaaa"}}},
		domain.DepartureRumor{MemberID: "aaaa"},
	}

	for _, want := range variants {
		t.Run(want.Kind().String(), func(t *testing.T) {
			b, err := EncodeRumor(want)
			if err != nil {
				t.Fatalf("EncodeRumor: %v", err)
			}
			got, err := DecodeRumor(b)
			if err != nil {
				t.Fatalf("DecodeRumor: %v", err)
			}
			if got.Kind() != want.Kind() {
				t.Fatalf("Kind = %v, want %v", got.Kind(), want.Kind())
			}
			if domain.KeyOf(got) != domain.KeyOf(want) {
				t.Errorf("store key = %+v, want %+v", domain.KeyOf(got), domain.KeyOf(want))
			}
		})
	}
}

func TestRumor_ElectionRoundtripPreservesVotes(t *testing.T) {
	want := domain.ElectionRumor{
		FromID: "aaaa", MemberID: "cccc", ServiceGroup: "web.prod",
		Term: 2, Suitability: 1, Status: domain.ElectionFinished,
		Votes: []string{"aaaa", "bbbb", "cccc", "dddd"},
	}
	b, err := EncodeRumor(want)
	if err != nil {
		t.Fatalf("EncodeRumor: %v", err)
	}
	decoded, err := DecodeRumor(b)
	if err != nil {
		t.Fatalf("DecodeRumor: %v", err)
	}
	got := decoded.(domain.ElectionRumor)
	if got.MemberID != "cccc" || got.Status != domain.ElectionFinished || got.Suitability != 1 {
		t.Errorf("decoded = %+v", got)
	}
	if len(got.Votes) != 4 {
		t.Fatalf("votes = %v, want 4 in order", got.Votes)
	}
	for i, v := range want.Votes {
		if got.Votes[i] != v {
			t.Errorf("Votes[%d] = %q, want %q (order must survive the wire)", i, got.Votes[i], v)
		}
	}
}

func TestDecodeRumor_UnknownType(t *testing.T) {
	var b []byte
	b = appendVarintField(b, rumorType, 42)
	b = appendStringField(b, rumorKey, "k")

	if _, err := DecodeRumor(b); !errors.Is(err, domain.ErrUnknownRumorType) {
		t.Errorf("err = %v, want ErrUnknownRumorType", err)
	}
}

// A rumor whose type tag says Membership but that carries no membership
// payload is a type/payload mismatch.
func TestDecodeRumor_PayloadTypeMismatch(t *testing.T) {
	var b []byte
	b = appendVarintField(b, rumorType, uint64(domain.RumorMember))
	b = appendStringField(b, rumorKey, "aaaa")
	b = appendStringField(b, fServiceGroup, "web.prod")

	_, err := DecodeRumor(b)
	var pm *domain.ProtocolMismatch
	if !errors.As(err, &pm) {
		t.Fatalf("err = %v, want a ProtocolMismatch", err)
	}
}

func TestEnvelope_Roundtrip(t *testing.T) {
	want := Envelope{Encrypted: true, Nonce: []byte("123456789012345678901234"), Payload: []byte("sealed")}
	got, err := DecodeEnvelope(EncodeEnvelope(want))
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if !got.Encrypted || string(got.Nonce) != string(want.Nonce) || string(got.Payload) != string(want.Payload) {
		t.Errorf("roundtrip = %+v, want %+v", got, want)
	}
}

func TestEnvelope_PlaintextRoundtrip(t *testing.T) {
	want := Envelope{Encrypted: false, Payload: []byte("raw body")}
	got, err := DecodeEnvelope(EncodeEnvelope(want))
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if got.Encrypted || len(got.Nonce) != 0 || string(got.Payload) != "raw body" {
		t.Errorf("roundtrip = %+v", got)
	}
}

func TestDecodeEnvelope_MissingPayload(t *testing.T) {
	var b []byte
	b = appendBoolField(b, envelopeEncrypted, false)

	_, err := DecodeEnvelope(b)
	var pm *domain.ProtocolMismatch
	if !errors.As(err, &pm) || pm.Field != "envelope.payload" {
		t.Errorf("err = %v, want ProtocolMismatch on envelope.payload", err)
	}
}
