package store

// Pagination contains list pagination parameters. The zero value means no
// paging: return everything.
type Pagination struct {
	Limit  int // items per page (defaults to 100 with a maximum of 1000)
	Offset int
}

// DefaultPagination returns sensible defaults.
func DefaultPagination() Pagination {
	return Pagination{Limit: 100}
}

// Validate corrects out-of-range parameters in place. A zero Pagination is
// left alone so unpaged reads stay unpaged.
func (p *Pagination) Validate() {
	if p.Limit == 0 && p.Offset == 0 {
		return
	}
	if p.Limit <= 0 {
		p.Limit = 100
	}
	if p.Limit > 1000 {
		p.Limit = 1000
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}
