package cliui_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/memhooks/pkg/cliui"
)

var _ = Describe("FormatDuration", func() {
	DescribeTable("formats durations",
		func(d time.Duration, want string) {
			Expect(cliui.FormatDuration(d)).To(Equal(want))
		},
		Entry("milliseconds", 12*time.Millisecond, "12ms"),
		Entry("seconds", 3200*time.Millisecond, "3.2s"),
	)
})

var _ = Describe("Mark", func() {
	It("returns the success mark for nil", func() {
		Expect(cliui.Mark(nil)).To(Equal(cliui.SuccessMark))
	})

	It("returns the fail mark for an error", func() {
		Expect(cliui.Mark(errors.New("boom"))).To(Equal(cliui.FailMark))
	})
})

var _ = Describe("RenderJSON", func() {
	It("indents valid JSON", func() {
		var buf bytes.Buffer
		Expect(cliui.RenderJSON(&buf, []byte(`{"a":[1,2]}`))).To(Succeed())
		Expect(buf.String()).To(Equal("{\n  \"a\": [\n    1,\n    2\n  ]\n}\n"))
	})

	It("writes invalid input unchanged", func() {
		var buf bytes.Buffer
		Expect(cliui.RenderJSON(&buf, []byte("not json"))).To(Succeed())
		Expect(buf.String()).To(Equal("not json\n"))
	})
})

var _ = Describe("Step", func() {
	It("returns the function error and prints the final mark", func() {
		var buf bytes.Buffer
		err := cliui.Step(&buf, "probing worker", func() error {
			return errors.New("down")
		})
		Expect(err).To(MatchError("down"))
		Expect(buf.String()).To(ContainSubstring("probing worker"))
		Expect(buf.String()).To(ContainSubstring(cliui.FailMark))
		Expect(buf.String()).To(HaveSuffix("\n"))
	})
})
