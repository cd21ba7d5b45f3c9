package smartio_test

import (
	"bytes"
	"context"
	"errors"
	"io"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"rangestream/pkg/smartio"
)

var _ = Describe("RangedReader", func() {
	data := []byte("0123456789abcdefghij")

	Describe("NewRangedReader", func() {
		DescribeTable("returns ErrInvalidRange",
			func(offset, count int64, chunkSize int) {
				rr, err := smartio.NewRangedReader(context.Background(), bytes.NewReader(data), offset, count, chunkSize)
				Expect(errors.Is(err, smartio.ErrInvalidRange)).To(BeTrue())
				Expect(rr).To(BeNil())
			},
			Entry("when offset is negative", int64(-1), int64(10), 4),
			Entry("when count is negative", int64(0), int64(-1), 4),
			Entry("when chunk size is zero", int64(0), int64(10), 0),
		)
	})

	Describe("Read", func() {
		DescribeTable("reads the whole window",
			func(offset, count int64, chunkSize int, expected string) {
				rr, err := smartio.NewRangedReader(context.Background(), bytes.NewReader(data), offset, count, chunkSize)
				Expect(err).NotTo(HaveOccurred())

				got, err := io.ReadAll(rr)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(got)).To(Equal(expected))
				Expect(rr.Remaining()).To(BeZero())
			},
			Entry("middle window", int64(5), int64(5), 2, "56789"),
			Entry("start of source", int64(0), int64(3), 64, "012"),
			Entry("end of source", int64(15), int64(5), 3, "fghij"),
			Entry("whole source", int64(0), int64(20), 7, string(data)),
			Entry("single byte", int64(19), int64(1), 1, "j"),
			Entry("empty window", int64(4), int64(0), 8, ""),
		)

		It("never returns more than the chunk size per call", func() {
			rr, err := smartio.NewRangedReader(context.Background(), bytes.NewReader(data), 0, 20, 4)
			Expect(err).NotTo(HaveOccurred())

			buf := make([]byte, 16)
			n, err := rr.Read(buf)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(4))
			Expect(string(buf[:n])).To(Equal("0123"))
			Expect(rr.Remaining()).To(Equal(int64(16)))
		})

		It("returns EOF together with the last bytes", func() {
			rr, err := smartio.NewRangedReader(context.Background(), bytes.NewReader(data), 5, 5, 10)
			Expect(err).NotTo(HaveOccurred())

			buf := make([]byte, 10)
			n, err := rr.Read(buf)
			Expect(err).To(Equal(io.EOF))
			Expect(n).To(Equal(5))

			n, err = rr.Read(buf)
			Expect(err).To(Equal(io.EOF))
			Expect(n).To(BeZero())
		})

		It("handles a zero-length buffer", func() {
			rr, err := smartio.NewRangedReader(context.Background(), bytes.NewReader(data), 5, 5, 10)
			Expect(err).NotTo(HaveOccurred())

			n, err := rr.Read(nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeZero())
		})

		It("reports a source shorter than the window", func() {
			rr, err := smartio.NewRangedReader(context.Background(), bytes.NewReader(data), 15, 10, 32)
			Expect(err).NotTo(HaveOccurred())

			buf := make([]byte, 32)
			n, err := rr.Read(buf)
			Expect(err).To(Equal(io.ErrUnexpectedEOF))
			Expect(string(buf[:n])).To(Equal("fghij"))
		})

		It("preserves underlying read errors", func() {
			boom := errors.New("disk on fire")
			rr, err := smartio.NewRangedReader(context.Background(), failingReaderAt{err: boom}, 0, 10, 4)
			Expect(err).NotTo(HaveOccurred())

			_, err = rr.Read(make([]byte, 4))
			Expect(err).To(MatchError(boom))
		})

		It("stops once the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			rr, err := smartio.NewRangedReader(ctx, bytes.NewReader(data), 0, 20, 4)
			Expect(err).NotTo(HaveOccurred())

			_, err = rr.Read(make([]byte, 4))
			Expect(err).NotTo(HaveOccurred())

			cancel()

			n, err := rr.Read(make([]byte, 4))
			Expect(err).To(MatchError(context.Canceled))
			Expect(n).To(BeZero())
		})

		It("reads identical bytes from two readers over one source", func() {
			src := bytes.NewReader(data)
			first, err := smartio.NewRangedReader(context.Background(), src, 2, 8, 3)
			Expect(err).NotTo(HaveOccurred())
			second, err := smartio.NewRangedReader(context.Background(), src, 2, 8, 5)
			Expect(err).NotTo(HaveOccurred())

			a, err := io.ReadAll(first)
			Expect(err).NotTo(HaveOccurred())
			b, err := io.ReadAll(second)
			Expect(err).NotTo(HaveOccurred())
			Expect(a).To(Equal(b))
		})
	})
})

type failingReaderAt struct {
	err error
}

func (f failingReaderAt) ReadAt(_ []byte, _ int64) (int, error) {
	return 0, f.err
}
