package report

// Option configures Render.
type Option func(*settings)

type settings struct {
	styled bool
}

// WithStyled enables terminal styling for the text format.
func WithStyled(styled bool) Option {
	return func(s *settings) {
		s.styled = styled
	}
}
