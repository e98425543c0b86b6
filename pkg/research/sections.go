package research

import "sync"

// SectionStore holds the ordered conversation. Every mutation replaces the
// section at its index with a modified copy, so a section value handed out
// earlier never changes underneath its holder.
//
// Observers run while the store lock is held, in mutation order. They must
// not call back into the store.
type SectionStore struct {
	mu        sync.Mutex
	sections  []ChatSection
	epoch     uint64
	observers []func(index int, section ChatSection)
}

// Slot pins a section to the conversation it was appended to. Reset starts a
// new conversation, after which indexes are reused and old slots go stale.
type Slot struct {
	Index int
	Epoch uint64
}

func NewSectionStore() *SectionStore {
	return &SectionStore{}
}

// Subscribe registers fn to be called after every mutation of a single
// section. Reset and Clear notify with index -1.
func (s *SectionStore) Subscribe(fn func(index int, section ChatSection)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Append adds a new section and returns its index.
func (s *SectionStore) Append(section ChatSection) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sections = append(s.sections, section)
	idx := len(s.sections) - 1
	s.notify(idx, section)
	return idx
}

// AppendSlot is Append for writers that keep updating the section later.
func (s *SectionStore) AppendSlot(section ChatSection) Slot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sections = append(s.sections, section)
	idx := len(s.sections) - 1
	s.notify(idx, section)
	return Slot{Index: idx, Epoch: s.epoch}
}

// UpdateSlot is Update restricted to the slot's own section. allow, when set,
// is checked under the store lock and vetoes the write by returning false.
// Both a reset since the append and a veto return ErrStaleSection.
func (s *SectionStore) UpdateSlot(slot Slot, allow func() bool, fn func(*ChatSection)) (ChatSection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slot.Epoch != s.epoch || (allow != nil && !allow()) {
		return ChatSection{}, ErrStaleSection
	}
	if slot.Index < 0 || slot.Index >= len(s.sections) {
		return ChatSection{}, ErrSectionNotFound
	}
	updated := s.sections[slot.Index]
	fn(&updated)
	s.sections[slot.Index] = updated
	s.notify(slot.Index, updated)
	return updated, nil
}

// Replace swaps the section at index for section.
func (s *SectionStore) Replace(index int, section ChatSection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.sections) {
		return ErrSectionNotFound
	}
	s.sections[index] = section
	s.notify(index, section)
	return nil
}

// Update applies fn to a copy of the section at index and stores the copy.
func (s *SectionStore) Update(index int, fn func(*ChatSection)) (ChatSection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.sections) {
		return ChatSection{}, ErrSectionNotFound
	}
	updated := s.sections[index]
	fn(&updated)
	s.sections[index] = updated
	s.notify(index, updated)
	return updated, nil
}

// ToggleReasoning flips the collapsed flag of the reasoning trace.
func (s *SectionStore) ToggleReasoning(index int) error {
	_, err := s.Update(index, func(cs *ChatSection) {
		cs.IsReasoningCollapsed = !cs.IsReasoningCollapsed
	})
	return err
}

func (s *SectionStore) Section(index int) (ChatSection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.sections) {
		return ChatSection{}, ErrSectionNotFound
	}
	return s.sections[index], nil
}

// Sections returns a copy of the conversation.
func (s *SectionStore) Sections() []ChatSection {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ChatSection, len(s.sections))
	copy(out, s.sections)
	return out
}

func (s *SectionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sections)
}

// Reset replaces the whole conversation, e.g. with a loaded history.
func (s *SectionStore) Reset(sections []ChatSection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sections = make([]ChatSection, len(sections))
	copy(s.sections, sections)
	s.epoch++
	s.notify(-1, ChatSection{})
}

func (s *SectionStore) Clear() {
	s.Reset(nil)
}

func (s *SectionStore) notify(index int, section ChatSection) {
	for _, fn := range s.observers {
		fn(index, section)
	}
}
