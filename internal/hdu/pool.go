package hdu

import "sync"

// strideBufPool recycles stride scratch buffers across HDUs so repeated
// stride reads stay allocation-light.
var strideBufPool = sync.Pool{
	New: func() any { return new([]byte) },
}

// getStrideBuf returns a buffer of exactly size bytes plus a release
// function that returns it to the pool.
func getStrideBuf(size int) ([]byte, func()) {
	ptr, _ := strideBufPool.Get().(*[]byte)
	buf := *ptr
	if cap(buf) < size {
		buf = make([]byte, size)
	} else {
		buf = buf[:size]
	}
	*ptr = buf
	return buf, func() { strideBufPool.Put(ptr) }
}

// strideBuf lazily acquires the HDU's stride scratch buffer.
func (h *HDU) strideBuf() []byte {
	if h.buf == nil || int64(len(h.buf)) != h.strideLen {
		h.ReleaseBuffers()
		h.buf, h.bufRelease = getStrideBuf(int(h.strideLen))
	}
	return h.buf
}

// ReleaseBuffers returns the HDU's pooled buffers. The owning file calls it
// once the HDU's strides can no longer be observed; after release any
// previously returned stride buffer is invalid.
func (h *HDU) ReleaseBuffers() {
	if h.bufRelease != nil {
		h.bufRelease()
		h.buf, h.bufRelease = nil, nil
	}
}
