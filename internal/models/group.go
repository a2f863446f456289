package models

// ChannelGroup is a cluster of channels judged to be the same logical
// channel. Members keep their ingestion order; Representative is set
// once a survivor has been elected.
type ChannelGroup struct {
	Members        []*Channel
	Representative *Channel
}

// Size returns the member count.
func (g *ChannelGroup) Size() int {
	return len(g.Members)
}

// Duplicates returns every member except the representative.
func (g *ChannelGroup) Duplicates() []*Channel {
	if g.Representative == nil {
		return nil
	}
	dups := make([]*Channel, 0, len(g.Members)-1)
	for _, m := range g.Members {
		if m != g.Representative {
			dups = append(dups, m)
		}
	}
	return dups
}
