package segment

// cache holds exactly one decoded epoch: the reader's one-epoch LRU
// per spec.md §4.5, invalidated on any seek to a different epoch.
type cache struct {
	valid  bool
	epoch  int64
	length int
	rows   [][]int64 // storage order, h rows each of length `length`
}

func (c *cache) hit(epoch int64) bool {
	return c.valid && c.epoch == epoch
}

func (c *cache) store(epoch int64, length int, rows [][]int64) {
	c.valid = true
	c.epoch = epoch
	c.length = length
	c.rows = rows
}
