package store

// ============================================================
// Layering
// ============================================================

// Layer operations move shapes within the shape part of the draw list.
// Handlers always stay above every shape, so these are no-ops on them.

// LayerUp swaps a shape with the shape drawn directly above it.
func (s *Store) LayerUp(id string) bool {
	idx, ok := s.shapeIndex("layerUp", id)
	if !ok || idx >= s.shapeCount()-1 {
		return false
	}
	s.objects[idx], s.objects[idx+1] = s.objects[idx+1], s.objects[idx]
	s.afterLayerChange()
	return true
}

// LayerDown swaps a shape with the shape drawn directly below it.
func (s *Store) LayerDown(id string) bool {
	idx, ok := s.shapeIndex("layerDown", id)
	if !ok || idx == 0 {
		return false
	}
	s.objects[idx-1], s.objects[idx] = s.objects[idx], s.objects[idx-1]
	s.afterLayerChange()
	return true
}

// DrawOnTop moves a shape above every other shape.
func (s *Store) DrawOnTop(id string) bool {
	idx, ok := s.shapeIndex("drawOnTop", id)
	if !ok {
		return false
	}
	last := s.shapeCount() - 1
	if idx == last {
		return false
	}
	obj := s.objects[idx]
	copy(s.objects[idx:last], s.objects[idx+1:last+1])
	s.objects[last] = obj
	s.afterLayerChange()
	return true
}

// DrawOnBottom moves a shape below every other shape.
func (s *Store) DrawOnBottom(id string) bool {
	idx, ok := s.shapeIndex("drawOnBottom", id)
	if !ok || idx == 0 {
		return false
	}
	obj := s.objects[idx]
	copy(s.objects[1:idx+1], s.objects[:idx])
	s.objects[0] = obj
	s.afterLayerChange()
	return true
}

// shapeIndex resolves id to its position in the draw list. Unknown ids are
// reported; handler ids are silently refused.
func (s *Store) shapeIndex(op, id string) (int, bool) {
	idx := s.indexOf(id)
	if idx == -1 {
		s.diag(op, id, "unknown id")
		return -1, false
	}
	if s.objects[idx].IsHandler() {
		return -1, false
	}
	return idx, true
}

func (s *Store) afterLayerChange() {
	s.ensureHandlersOnTop()
	s.touch()
}
