package entities

// Stored records decode leniently and keep whatever their struct does not model.

// UnmarshalJSON implements json.Unmarshaler
func (f *FinancialFlow) UnmarshalJSON(data []byte) error {
	type plain FinancialFlow
	extra, err := UnmarshalRecord(data, (*plain)(f))
	f.Extra = extra
	return err
}

// MarshalJSON implements json.Marshaler
func (f FinancialFlow) MarshalJSON() ([]byte, error) {
	type plain FinancialFlow
	return MarshalRecord(plain(f), f.Extra)
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Tax) UnmarshalJSON(data []byte) error {
	type plain Tax
	extra, err := UnmarshalRecord(data, (*plain)(t))
	t.Extra = extra
	return err
}

// MarshalJSON implements json.Marshaler
func (t Tax) MarshalJSON() ([]byte, error) {
	type plain Tax
	return MarshalRecord(plain(t), t.Extra)
}

// UnmarshalJSON implements json.Unmarshaler
func (l *Location) UnmarshalJSON(data []byte) error {
	type plain Location
	extra, err := UnmarshalRecord(data, (*plain)(l))
	l.Extra = extra
	return err
}

// MarshalJSON implements json.Marshaler
func (l Location) MarshalJSON() ([]byte, error) {
	type plain Location
	return MarshalRecord(plain(l), l.Extra)
}

// UnmarshalJSON implements json.Unmarshaler
func (b *Boycott) UnmarshalJSON(data []byte) error {
	type plain Boycott
	extra, err := UnmarshalRecord(data, (*plain)(b))
	b.Extra = extra
	return err
}

// MarshalJSON implements json.Marshaler
func (b Boycott) MarshalJSON() ([]byte, error) {
	type plain Boycott
	return MarshalRecord(plain(b), b.Extra)
}

// UnmarshalJSON implements json.Unmarshaler
func (tx *CaisseTransaction) UnmarshalJSON(data []byte) error {
	type plain CaisseTransaction
	extra, err := UnmarshalRecord(data, (*plain)(tx))
	tx.Extra = extra
	return err
}

// MarshalJSON implements json.Marshaler
func (tx CaisseTransaction) MarshalJSON() ([]byte, error) {
	type plain CaisseTransaction
	return MarshalRecord(plain(tx), tx.Extra)
}

// UnmarshalJSON implements json.Unmarshaler
func (c *Caisse) UnmarshalJSON(data []byte) error {
	type plain Caisse
	extra, err := UnmarshalRecord(data, (*plain)(c))
	c.Extra = extra
	return err
}

// MarshalJSON implements json.Marshaler
func (c Caisse) MarshalJSON() ([]byte, error) {
	type plain Caisse
	return MarshalRecord(plain(c), c.Extra)
}

// UnmarshalJSON implements json.Unmarshaler
func (tx *BlockchainTransaction) UnmarshalJSON(data []byte) error {
	type plain BlockchainTransaction
	extra, err := UnmarshalRecord(data, (*plain)(tx))
	tx.Extra = extra
	return err
}

// MarshalJSON implements json.Marshaler
func (tx BlockchainTransaction) MarshalJSON() ([]byte, error) {
	type plain BlockchainTransaction
	return MarshalRecord(plain(tx), tx.Extra)
}

// UnmarshalJSON implements json.Unmarshaler
func (l *Ledger) UnmarshalJSON(data []byte) error {
	type plain Ledger
	extra, err := UnmarshalRecord(data, (*plain)(l))
	l.Extra = extra
	return err
}

// MarshalJSON implements json.Marshaler
func (l Ledger) MarshalJSON() ([]byte, error) {
	type plain Ledger
	return MarshalRecord(plain(l), l.Extra)
}

// UnmarshalJSON implements json.Unmarshaler
func (b *Beneficiary) UnmarshalJSON(data []byte) error {
	type plain Beneficiary
	extra, err := UnmarshalRecord(data, (*plain)(b))
	b.Extra = extra
	return err
}

// MarshalJSON implements json.Marshaler
func (b Beneficiary) MarshalJSON() ([]byte, error) {
	type plain Beneficiary
	return MarshalRecord(plain(b), b.Extra)
}

// UnmarshalJSON implements json.Unmarshaler
func (p *CameraPoint) UnmarshalJSON(data []byte) error {
	type plain CameraPoint
	extra, err := UnmarshalRecord(data, (*plain)(p))
	p.Extra = extra
	return err
}

// MarshalJSON implements json.Marshaler
func (p CameraPoint) MarshalJSON() ([]byte, error) {
	type plain CameraPoint
	return MarshalRecord(plain(p), p.Extra)
}

// UnmarshalJSON implements json.Unmarshaler
func (p *JournalPost) UnmarshalJSON(data []byte) error {
	type plain JournalPost
	extra, err := UnmarshalRecord(data, (*plain)(p))
	p.Extra = extra
	return err
}

// MarshalJSON implements json.Marshaler
func (p JournalPost) MarshalJSON() ([]byte, error) {
	type plain JournalPost
	return MarshalRecord(plain(p), p.Extra)
}

// UnmarshalJSON implements json.Unmarshaler
func (m *Mission) UnmarshalJSON(data []byte) error {
	type plain Mission
	extra, err := UnmarshalRecord(data, (*plain)(m))
	m.Extra = extra
	return err
}

// MarshalJSON implements json.Marshaler
func (m Mission) MarshalJSON() ([]byte, error) {
	type plain Mission
	return MarshalRecord(plain(m), m.Extra)
}

// UnmarshalJSON implements json.Unmarshaler
func (r *RIC) UnmarshalJSON(data []byte) error {
	type plain RIC
	extra, err := UnmarshalRecord(data, (*plain)(r))
	r.Extra = extra
	return err
}

// MarshalJSON implements json.Marshaler
func (r RIC) MarshalJSON() ([]byte, error) {
	type plain RIC
	return MarshalRecord(plain(r), r.Extra)
}

// UnmarshalJSON implements json.Unmarshaler
func (e *AffaireEvent) UnmarshalJSON(data []byte) error {
	type plain AffaireEvent
	extra, err := UnmarshalRecord(data, (*plain)(e))
	e.Extra = extra
	return err
}

// MarshalJSON implements json.Marshaler
func (e AffaireEvent) MarshalJSON() ([]byte, error) {
	type plain AffaireEvent
	return MarshalRecord(plain(e), e.Extra)
}

// UnmarshalJSON implements json.Unmarshaler
func (a *Affaires) UnmarshalJSON(data []byte) error {
	type plain Affaires
	extra, err := UnmarshalRecord(data, (*plain)(a))
	a.Extra = extra
	return err
}

// MarshalJSON implements json.Marshaler
func (a Affaires) MarshalJSON() ([]byte, error) {
	type plain Affaires
	return MarshalRecord(plain(a), a.Extra)
}
