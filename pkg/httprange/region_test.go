package httprange_test

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"rangestream/pkg/httprange"
)

var _ = Describe("Resolve", func() {
	const size = int64(1000)

	When("no range is requested", func() {
		It("serves the whole resource with 200", func() {
			region := httprange.Resolve(size, nil, 300)
			Expect(region).To(Equal(httprange.Region{Offset: 0, Count: 1000, Total: 1000}))
			Expect(region.Partial()).To(BeFalse())
			Expect(region.Status()).To(Equal(http.StatusOK))
		})
	})

	When("a range is requested", func() {
		DescribeTable("resolves offset and count",
			func(rangeHeader string, maxCount, expectedOffset, expectedCount int64) {
				r, err := httprange.Parse(rangeHeader, size)
				Expect(err).NotTo(HaveOccurred())

				region := httprange.Resolve(size, r, maxCount)
				Expect(region.Offset).To(Equal(expectedOffset))
				Expect(region.Count).To(Equal(expectedCount))
				Expect(region.Total).To(Equal(size))
				Expect(region.Offset + region.Count).To(BeNumerically("<=", size))
			},
			Entry("bounded range under the cap", "bytes=0-499", httprange.DefaultMaxCount, int64(0), int64(500)),
			Entry("open-ended range over the cap", "bytes=500-", int64(300), int64(500), int64(300)),
			Entry("bounded range over the cap", "bytes=100-899", int64(300), int64(100), int64(300)),
			Entry("suffix range", "bytes=-50", httprange.DefaultMaxCount, int64(950), int64(50)),
			Entry("suffix range over the cap keeps the offset", "bytes=-500", int64(100), int64(500), int64(100)),
			Entry("range exactly at the cap", "bytes=0-299", int64(300), int64(0), int64(300)),
			Entry("no cap", "bytes=0-", int64(0), int64(0), int64(1000)),
			Entry("last byte", "bytes=999-", int64(300), int64(999), int64(1)),
		)

		It("clamps a range that overshoots the resource", func() {
			region := httprange.Resolve(size, &httprange.Range{Start: 900, End: 5000}, 0)
			Expect(region).To(Equal(httprange.Region{Offset: 900, Count: 100, Total: 1000}))
		})

		It("answers a range covering the whole resource with 200", func() {
			region := httprange.Resolve(size, &httprange.Range{Start: 0, End: 999}, httprange.DefaultMaxCount)
			Expect(region.Partial()).To(BeFalse())
			Expect(region.Status()).To(Equal(http.StatusOK))
		})
	})

	When("the resource is empty", func() {
		It("returns an empty full region", func() {
			Expect(httprange.Resolve(0, nil, 300)).To(Equal(httprange.Region{}))
			Expect(httprange.Resolve(0, &httprange.Range{Start: 0, End: 10}, 300)).To(Equal(httprange.Region{}))
			Expect(httprange.Region{}.Status()).To(Equal(http.StatusOK))
		})
	})
})

var _ = Describe("Region headers", func() {
	It("frames a partial region", func() {
		region := httprange.Region{Offset: 500, Count: 300, Total: 1000}
		h := http.Header{}
		region.SetHeaders(h)

		Expect(region.Status()).To(Equal(http.StatusPartialContent))
		Expect(h.Get("Content-Range")).To(Equal("bytes 500-799/1000"))
		Expect(h.Get("Content-Length")).To(Equal("300"))
		Expect(h.Get("Accept-Ranges")).To(Equal("bytes"))
	})

	It("frames a full region without Content-Range", func() {
		region := httprange.Region{Offset: 0, Count: 1000, Total: 1000}
		h := http.Header{"Content-Range": []string{"stale"}}
		region.SetHeaders(h)

		Expect(h.Get("Content-Length")).To(Equal("1000"))
		Expect(h.Values("Content-Range")).To(BeEmpty())
	})

	It("renders the unsatisfied Content-Range", func() {
		Expect(httprange.UnsatisfiedContentRange(1000)).To(Equal("bytes */1000"))
	})
})
