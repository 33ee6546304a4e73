package main

// Page copy and outbound links.
var (
	LinkedInURL = "https://www.linkedin.com/in/camilogomezvalencia/"
	GitHubURL   = "https://github.com/fullstacknyc?tab=repositories"
	DonateURL   = "https://buy.stripe.com/3claEX5khdEweKn1TF9oc06"

	ResumeBlurb   = `View my professional experience and skills`
	ProjectsBlurb = `Explore my code repositories and projects`
	ContactBlurb  = `Get in touch with me`

	BoardBlurb = `Every topic in the headline above. Locked ones stay hidden until you
	unlock them, and your choices are remembered on this browser.`
)

// NavLink is an entry in the top navigation bar.
type NavLink struct {
	Label    string
	Href     string
	External bool
}

// desktopNav links out; the mobile menu jumps to sections on the page.
var (
	desktopNav = []NavLink{
		{Label: "Resume", Href: LinkedInURL, External: true},
		{Label: "Projects", Href: GitHubURL, External: true},
		{Label: "Donate", Href: DonateURL, External: true},
	}
	mobileNav = []NavLink{
		{Label: "Resume", Href: "#resume"},
		{Label: "Projects", Href: "#projects"},
		{Label: "Contact", Href: "#contact"},
	}
)
