package group

import "io"

// FromReader decodes a compressed point from r.
func (p *Point) FromReader(r io.Reader) error {
	var b [PointSize]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return err
	}
	_, err := p.SetBytes(b[:])
	return err
}

// FromReader decodes a canonical scalar from r.
func (s *Scalar) FromReader(r io.Reader) error {
	var b [ScalarSize]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return err
	}
	_, err := s.SetBytes(b[:])
	return err
}
