package parallel

// Band is a half-open row range [Y0, Y1).
type Band struct {
	Y0, Y1 int
}

// Split divides [y0, y1) into at most n bands of at least minRows rows
// each. Bands are contiguous, ordered top to bottom and differ in height
// by at most one row.
func Split(y0, y1, n, minRows int) []Band {
	rows := y1 - y0
	if rows <= 0 {
		return nil
	}
	minRows = max(minRows, 1)
	n = max(min(n, rows/minRows), 1)

	bands := make([]Band, 0, n)
	base, extra := rows/n, rows%n
	y := y0
	for i := range n {
		h := base
		if i < extra {
			h++
		}
		bands = append(bands, Band{y, y + h})
		y += h
	}
	return bands
}

// ForEachBand splits [y0, y1) as Split does, using one band per worker,
// and calls fn for each band on the pool. It returns when every call has
// finished. A single band runs on the calling goroutine.
func (p *WorkerPool) ForEachBand(y0, y1, minRows int, fn func(Band)) {
	bands := Split(y0, y1, p.Workers(), minRows)
	if len(bands) == 1 {
		fn(bands[0])
		return
	}
	work := make([]func(), len(bands))
	for i, b := range bands {
		work[i] = func() { fn(b) }
	}
	p.ExecuteAll(work)
}
