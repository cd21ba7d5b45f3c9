package httprange_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"rangestream/pkg/httprange"
)

var _ = Describe("Parse", func() {
	const contentLength = int64(1000)

	expectRange := func(rangeHeader string, size, expectedStart, expectedEnd int64) {
		result, err := httprange.Parse(rangeHeader, size)
		Expect(err).NotTo(HaveOccurred())
		Expect(result).NotTo(BeNil())
		Expect(result.Start).To(Equal(expectedStart))
		Expect(result.End).To(Equal(expectedEnd))
	}

	expectError := func(rangeHeader string, size int64, target error) {
		result, err := httprange.Parse(rangeHeader, size)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, target)).To(BeTrue(), "got %v", err)
		Expect(result).To(BeNil())
	}

	When("no range header is sent", func() {
		DescribeTable("returns no range and no error",
			func(rangeHeader string) {
				result, err := httprange.Parse(rangeHeader, contentLength)
				Expect(err).NotTo(HaveOccurred())
				Expect(result).To(BeNil())
			},
			Entry("empty string", ""),
			Entry("only whitespace", "   "),
		)
	})

	Describe("malformed input", func() {
		DescribeTable("returns ErrMalformed",
			func(rangeHeader string) {
				expectError(rangeHeader, contentLength, httprange.ErrMalformed)
			},
			Entry("missing bytes= prefix", "0-499"),
			Entry("wrong unit", "items=0-499"),
			Entry("only bytes=", "bytes="),
			Entry("no dash", "bytes=0499"),
			Entry("only dash", "bytes=-"),
			Entry("multiple dashes", "bytes=0-4-99"),
			Entry("multiple ranges", "bytes=0-1,5-9"),
			Entry("trailing comma", "bytes=0-1,"),
			Entry("non-numeric start", "bytes=abc-500"),
			Entry("non-numeric end", "bytes=500-abc"),
			Entry("non-numeric suffix", "bytes=-abc"),
			Entry("negative suffix", "bytes=--500"),
			Entry("plus sign on start", "bytes=+500-600"),
			Entry("plus sign on suffix", "bytes=-+500"),
			Entry("space inside start", "bytes= 500 -600"),
			Entry("space inside end", "bytes=500- 600"),
			Entry("end before start", "bytes=500-400"),
			Entry("end before start beyond length", "bytes=3000-2000"),
		)
	})

	Describe("unsatisfiable input", func() {
		DescribeTable("returns ErrUnsatisfiable",
			func(rangeHeader string, size int64) {
				expectError(rangeHeader, size, httprange.ErrUnsatisfiable)
			},
			Entry("start equals content length", "bytes=1000-1500", contentLength),
			Entry("start exceeds content length", "bytes=2000-3000", contentLength),
			Entry("open-ended at content length", "bytes=1000-", contentLength),
			Entry("zero suffix", "bytes=-0", contentLength),
			Entry("any range on empty resource", "bytes=0-0", int64(0)),
			Entry("suffix on empty resource", "bytes=-10", int64(0)),
			Entry("open-ended on empty resource", "bytes=0-", int64(0)),
			Entry("start overflowing int64", "bytes=99999999999999999999-", contentLength),
			Entry("bounded start overflowing int64", "bytes=99999999999999999999-99999999999999999999", contentLength),
		)
	})

	Describe("suffix range", func() {
		DescribeTable("parses correctly",
			expectRange,
			Entry("suffix smaller than content", "bytes=-50", contentLength, int64(950), int64(999)),
			Entry("suffix equal to content", "bytes=-1000", contentLength, int64(0), int64(999)),
			Entry("suffix larger than content is clamped", "bytes=-2000", contentLength, int64(0), int64(999)),
			Entry("suffix overflowing int64 is clamped", "bytes=-99999999999999999999", contentLength, int64(0), int64(999)),
			Entry("suffix of 1", "bytes=-1", contentLength, int64(999), int64(999)),
			Entry("suffix on single byte content", "bytes=-1", int64(1), int64(0), int64(0)),
		)
	})

	Describe("open-ended range", func() {
		DescribeTable("parses correctly",
			expectRange,
			Entry("start at beginning", "bytes=0-", contentLength, int64(0), int64(999)),
			Entry("start in middle", "bytes=500-", contentLength, int64(500), int64(999)),
			Entry("start at last byte", "bytes=999-", contentLength, int64(999), int64(999)),
		)
	})

	Describe("bounded range", func() {
		DescribeTable("parses correctly",
			expectRange,
			Entry("first half", "bytes=0-499", contentLength, int64(0), int64(499)),
			Entry("full range", "bytes=0-999", contentLength, int64(0), int64(999)),
			Entry("single byte", "bytes=500-500", contentLength, int64(500), int64(500)),
			Entry("end clamped at content length", "bytes=0-1000", contentLength, int64(0), int64(999)),
			Entry("end clamped beyond content length", "bytes=500-2000", contentLength, int64(500), int64(999)),
			Entry("huge end is clamped", "bytes=0-9223372036854775807", contentLength, int64(0), int64(999)),
			Entry("end overflowing int64 is clamped", "bytes=0-99999999999999999999", contentLength, int64(0), int64(999)),
			Entry("end overflowing int64 from the middle", "bytes=500-184467440737095516160", contentLength, int64(500), int64(999)),
		)
	})

	Describe("lenient syntax", func() {
		DescribeTable("accepts",
			expectRange,
			Entry("upper case unit", "BYTES=0-9", contentLength, int64(0), int64(9)),
			Entry("surrounding whitespace", "  bytes=0-9  ", contentLength, int64(0), int64(9)),
			Entry("whitespace around the range set", "bytes= 0-9", contentLength, int64(0), int64(9)),
		)
	})
})
