package capability

// StaticMember is a fixed capability record for tests and local setups.
type StaticMember struct {
	CanPropose bool
	CanVote    bool
	Balance    float64
	Reputation float64
}

// Static serves capability lookups from an in-memory map.
type Static struct {
	Members map[string]StaticMember
}

func NewStatic(members map[string]StaticMember) *Static {
	return &Static{Members: members}
}

func (s *Static) HasProposeCapability(addr string) bool {
	return s.Members[addr].CanPropose
}

func (s *Static) HasVoteCapability(addr string) bool {
	return s.Members[addr].CanVote
}

func (s *Static) TokenBalance(addr string) float64 {
	return s.Members[addr].Balance
}

func (s *Static) Reputation(addr string) (float64, bool) {
	m, ok := s.Members[addr]
	if !ok || m.Reputation == 0 {
		return 0, false
	}
	return m.Reputation, true
}
