package vmssync

import "testing"

func TestImportCursor_RoundTrip(t *testing.T) {
	cursor := ImportCursor{PageToken: "/services/data/v58.0/query/01g-2000", Pages: 7}
	got := DecodeImportCursor(EncodeImportCursor(cursor))
	if got != cursor {
		t.Fatalf("round trip = %+v, want %+v", got, cursor)
	}
}

func TestDecodeImportCursor_CorruptFallsBackToFullRun(t *testing.T) {
	for _, raw := range [][]byte{nil, {}, []byte("{"), []byte(`"page"`)} {
		got := DecodeImportCursor(raw)
		if got != (ImportCursor{}) {
			t.Fatalf("decode %q = %+v, want zero cursor", raw, got)
		}
	}
}
