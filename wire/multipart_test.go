package wire_test

import (
	"testing"

	"github.com/momentics/weblet/wire"
)

func TestMultipartParserSinglePart(t *testing.T) {
	body := "--XYZ\r\n" +
		"Content-Disposition: form-data; name=\"file\"; filename=\"a.bin\"\r\n" +
		"Content-Type: application/octet-stream\r\n\r\n" +
		"hello\r\n" +
		"--XYZ--\r\n"

	var gotData []byte
	var gotForm wire.FormInfo
	var gotFinal bool

	p := wire.NewMultipartParser("XYZ", func(data []byte, form wire.FormInfo, pos int64, final bool) {
		gotData = append(gotData, data...)
		gotForm = form
		gotFinal = gotFinal || final
	})
	p.Feed([]byte(body))

	if string(gotData) != "hello" {
		t.Errorf("data = %q", gotData)
	}
	if gotForm.Name != "file" || gotForm.Filename != "a.bin" {
		t.Errorf("form = %+v", gotForm)
	}
	if !gotFinal {
		t.Error("expected final part flag")
	}
	if !p.Done() {
		t.Error("expected parser done")
	}
}

func TestMultipartParserSplitAcrossFeeds(t *testing.T) {
	full := "--B\r\nContent-Disposition: form-data; name=\"f\"\r\n\r\nabcdef\r\n--B--\r\n"
	var gotData []byte
	p := wire.NewMultipartParser("B", func(data []byte, form wire.FormInfo, pos int64, final bool) {
		gotData = append(gotData, data...)
	})
	for i := 0; i < len(full); i++ {
		p.Feed([]byte{full[i]})
	}
	if string(gotData) != "abcdef" {
		t.Errorf("data = %q", gotData)
	}
}
