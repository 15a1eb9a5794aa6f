// Package resources holds the static crisis-support directory and FAQ shown by HerSpace.
package resources

import (
	"fmt"
	"strings"
)

// Contact is one hotline or organisation.
type Contact struct {
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Text    string `json:"text,omitempty"`
	Website string `json:"website,omitempty"`
}

// Group is a themed list of contacts.
type Group struct {
	Title    string    `json:"title"`
	Contacts []Contact `json:"contacts"`
}

// CrisisIntro introduces the crisis directory.
const CrisisIntro = "In an emergency, remember that you're not alone. Here are resources available for urgent, expert support."

// CrisisNote closes the crisis directory.
const CrisisNote = "Note: We are actively collecting crisis support resources for more countries. If you know of critical support services in your region, please help us expand this list."

// CrisisGroups is the crisis-support directory.
var CrisisGroups = []Group{
	{
		Title: "Suicide Prevention",
		Contacts: []Contact{
			{Name: "Suicide and Crisis Lifeline", Phone: "988"},
			{Name: "Crisis Text Line", Text: "Text TRUST at 741741"},
			{Name: "Veterans Crisis Line", Phone: "1-800-273-8255"},
			{Name: "National Alliance for Eating Disorders", Phone: "1-866-662-1235", Website: "https://www.allianceforeatingdisorders.com/"},
		},
	},
	{
		Title: "Domestic Violence",
		Contacts: []Contact{
			{Name: "Love is Respect - National Teen Dating Abuse Hotline", Phone: "1-866-331-9474", Website: "https://www.loveisrespect.org/"},
			{Name: "National Domestic Violence Hotline", Phone: "1-800-799-SAFE (7233)", Website: "https://www.thehotline.org/"},
			{Name: "StrongHearts Native Helpline", Phone: "1-844-762-8483", Website: "https://strongheartshelpline.org/"},
			{Name: "Office on Violence Against Women", Phone: "1-202-307-6026", Website: "https://www.justice.gov/ovw"},
		},
	},
	{
		Title: "Sexual Assault and Harassment",
		Contacts: []Contact{
			{Name: "National Sexual Assault Hotline", Phone: "1-800-656-HOPE (4673)", Website: "https://hotline.rainn.org/online"},
			{Name: "National Street Harassment Hotline", Phone: "1-855-897-5910", Website: "https://hotline.rainn.org/ssh-en"},
		},
	},
	{
		Title: "Non-consensual Intimate Images",
		Contacts: []Contact{
			{Name: "Cyber Civil Rights Initiative", Phone: "1-844-878-2274", Website: "https://cybercivilrights.org/"},
			{Name: "Love Is Respect", Phone: "1-866-331-9474", Website: "https://www.loveisrespect.org/"},
			{Name: "Take It Down", Website: "https://takeitdown.ncmec.org/"},
			{Name: "Thorn", Website: "https://www.thorn.org/"},
		},
	},
	{
		Title: "LGBTQ+ Helplines",
		Contacts: []Contact{
			{Name: "The Trevor Project", Phone: "1-866-488-7386", Text: "Text \"Start\" to 678678", Website: "https://www.thetrevorproject.org/get-help/"},
		},
	},
	{
		Title: "Child Protection",
		Contacts: []Contact{
			{Name: "Childhelp", Website: "https://www.childhelphotline.org/"},
			{Name: "National Center for Missing and Exploited Children", Website: "https://www.missingkids.org/home"},
			{Name: "Thorn", Website: "https://www.thorn.org/"},
		},
	},
}

// CrisisText renders the directory as plain text for embedding in model prompts.
func CrisisText() string {
	var b strings.Builder
	b.WriteString(CrisisIntro)
	b.WriteString("\n")
	for _, g := range CrisisGroups {
		fmt.Fprintf(&b, "%s:\n", g.Title)
		for _, c := range g.Contacts {
			b.WriteString("  - ")
			b.WriteString(c.Name)
			if c.Phone != "" {
				b.WriteString(": ")
				b.WriteString(c.Phone)
			}
			if c.Text != "" {
				b.WriteString(" (")
				b.WriteString(c.Text)
				b.WriteString(")")
			}
			if c.Website != "" {
				b.WriteString(" ")
				b.WriteString(c.Website)
			}
			b.WriteString("\n")
		}
	}
	b.WriteString(CrisisNote)
	return b.String()
}

// FAQEntry is one question and answer.
type FAQEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FAQ lists the frequently asked questions.
var FAQ = []FAQEntry{
	{
		Question: "How can I send my questions or suggestions?",
		Answer:   "We love hearing from you! If you have any questions or suggestions to help us improve, please reach out by email. Your feedback means the world to us.",
	},
	{
		Question: "What are your privacy policies?",
		Answer:   "This service doesn't use cookies for tracking and keeps your answers only for the length of your session. The information you share is sent to the language model provider for processing.",
	},
	{
		Question: "Should I provide personal information?",
		Answer:   "We encourage you to obscure any personal details and avoid sharing sensitive information. If you feel unsafe or someone might be monitoring your online activity, consider clearing your browsing history.",
	},
	{
		Question: "Can I quit filling out the questions on the home page if I feel uneasy?",
		Answer:   "Absolutely! Your comfort is our top priority. You can stop whenever you like. We also encourage you to explore the \"Crisis Support Resources\" and \"Therapy Location Finder\" sections.",
	},
}
