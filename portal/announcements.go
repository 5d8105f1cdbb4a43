package portal

import (
	"context"
	"io"

	"github.com/trezcool/masomo-portal/core/lms"
)

// AnnouncementsPage lists the announcements; editors can post new ones.
type AnnouncementsPage struct {
	page
	announcements list[lms.Announcement]
}

var _ Page = (*AnnouncementsPage)(nil)

func NewAnnouncementsPage(deps Deps) *AnnouncementsPage {
	p := &AnnouncementsPage{}
	p.init("Announcements", deps)
	return p
}

func (p *AnnouncementsPage) Load(ctx context.Context) error {
	anns, err := p.API.ListAnnouncements(ctx)
	return p.finishLoad(err, "Failed to load announcements", func() {
		p.announcements.reset(anns)
	})
}

func (p *AnnouncementsPage) Controls() []Control {
	return editorOnly(p.isEditor(), ControlPostAnnouncement)
}

func (p *AnnouncementsPage) Announcements() []lms.Announcement {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.announcements.all()
}

func (p *AnnouncementsPage) Post(ctx context.Context, na lms.NewAnnouncement) (lms.Announcement, error) {
	if err := p.gate(ControlPostAnnouncement, p.Controls()); err != nil {
		return lms.Announcement{}, err
	}
	if err := p.begin("post"); err != nil {
		return lms.Announcement{}, err
	}
	defer p.end("post")

	ann, err := p.API.CreateAnnouncement(ctx, na)
	if err != nil {
		return lms.Announcement{}, p.fail("Failed to post", err)
	}
	p.commit(func() {
		p.announcements.apply(Mutation[lms.Announcement]{Kind: Created, Item: ann})
		p.setStatusLocked("Announcement posted")
	})
	return ann, nil
}

func (p *AnnouncementsPage) Render(w io.Writer) error {
	ctrls := p.Controls()
	p.mu.Lock()
	v := struct {
		Header        header
		Announcements []lms.Announcement
	}{p.headerLocked(ctrls), p.announcements.all()}
	p.mu.Unlock()
	return render(w, "announcements", v)
}
