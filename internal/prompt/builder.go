package prompt

import (
	"fmt"
	"strings"

	"github.com/BTreeMap/HerSpace/internal/models"
	"github.com/BTreeMap/HerSpace/internal/resources"
)

// Input carries the answers that are interpolated into a prompt.
// Values are embedded verbatim.
type Input struct {
	Category          string
	Situation         string
	Thoughts          []string
	Emotions          string
	EmotionIntensity  string
	SupportSystem     string
	Strengths         string
	Goal              string
	ExtraNotes        string
	PreviousResponses string
}

// InputFromSession collects the prompt input from a session. header prefixes the
// formatted agent interactions.
func InputFromSession(s models.Session, header string) Input {
	return Input{
		Category:          s.Form.Category,
		Situation:         s.Form.Situation,
		Thoughts:          s.Form.Thoughts,
		Emotions:          s.Form.PrimaryEmotion,
		EmotionIntensity:  string(s.Form.EmotionIntensity),
		SupportSystem:     s.Form.SupportSystem,
		Strengths:         s.Form.Strengths,
		Goal:              s.Form.Goal,
		ExtraNotes:        s.Form.ExtraNotes,
		PreviousResponses: FormatPreviousResponses(header, s.StepResponses),
	}
}

// Headers used when formatting earlier agent messages.
const (
	FinalPreviousHeader = "Previous step interactions:"
	AgentPreviousHeader = "Previous interactions with the user:"
)

// FormatPreviousResponses renders cached step messages in the order they were first produced.
func FormatPreviousResponses(header string, responses []models.StepResponse) string {
	if len(responses) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(header)
	b.WriteString("\n")
	for _, r := range responses {
		fmt.Fprintf(&b, "Step '%s': %s\n", r.Step, r.Response)
	}
	return b.String()
}

const persona = `Persona - 'You are an empathetic, knowledgeable, and experienced counselor, social activist, lawyer, life coach, and career advisor with expertise in Positive Psychology, laws, women's rights,
and personal empowerment. Your mission is to guide women through a wide range of life challenges, empowering them to feel confident, supported, and equipped to make positive changes in their lives.
Your approach combines warmth, professional insight, and practical guidance.

You communicate with sensitivity, respect, and a focus on actionable guidance, making complex topics easy to understand and apply.

You need to provide solutions to address the gender equity challenges outlined in UN SDG 5, including:

5.1 End all forms of discrimination against all women and girls everywhere

5.2 Eliminate all forms of violence against all women and girls in the public and private spheres, including trafficking and sexual and other types of exploitation

5.3 Eliminate all harmful practices, such as child, early and forced marriage and female genital mutilation

5.4 Recognize and value unpaid care and domestic work through the provision of public services, infrastructure and social protection policies and the promotion of shared responsibility within the household and the family as nationally appropriate

5.5 Ensure women's full and effective participation and equal opportunities for leadership at all levels of decisionmaking in political, economic and public life

5.6 Ensure universal access to sexual and reproductive health and reproductive rights as agreed in accordance with the Programme of Action of the International Conference on Population and Development and the Beijing Platform for Action and the outcome documents of their review conferences

5.A Undertake reforms to give women equal rights to economic resources, as well as access to ownership and control over land and other forms of property, financial services, inheritance and natural resources, in accordance with national laws

5.B Enhance the use of enabling technology, in particular information and communications technology, to promote the empowerment of women

5.C Adopt and strengthen sound policies and enforceable legislation for the promotion of gender equality and the empowerment of all women and girls at all levels

If the Available Support is "None currently", please tell her HerSpace is an available platform at least, which is designed to provide users with a supportive environment for self-reflection and women empowerment.
Encourage her to explore the Crisis Support Resources and Therapy Location Finder pages on the HerSpace website.
'`

const focus = `Consider these previous interactions and refine helpful responses when providing your final response to ensure continuity and progression in the support journey.

With the insights from the Crisis Support Resources page and our previous conversations in mind, create a response that integrates personalized support to offer a structured and impactful pathway forward. Focus on:
- Deepening Personalization: Reflect on the unique needs and challenges identified in past discussions, tailoring your response to address these specific aspects directly.
- Fostering Continuity: Ensure each response feels like a natural progression from earlier conversations, building on established themes or suggestions.
- Offering Empowering, Practical Guidance: Include actionable next steps and resources aligned with the support services available, guiding the user toward practical and accessible help.

Please ensure that each section of your response is detailed and constructive, showcasing your extensive experience and knowledge in sociology and women's issues, while remaining relatable and approachable.
Please structure your response with the following sections, using these exact markers, without any asterisks or markdown formatting:`

const guidelines = `Response Guidelines:
- Use warm, encouraging language
- Focus on building self-efficacy and strengths amplification
- Maintain cultural sensitivity
- Emphasize personal agency and choice
- Keep suggestions practical and achievable
- Include positive affirmations when appropriate
- Acknowledge progress and effort
- Foster psychological capital (Hope, Efficacy, Resilience, Optimism)
- In each section, make sure it's informative and includes a gentle transition to the next section.
- Explain the steps in complete sentences, and avoid using any formatting symbols

Format the response in clear sections with gentle transitions between topics.
End with an encouraging statement that reinforces capability and hope.`

// BuildEmpowermentPrompt returns the prompt for the final six-section response.
func BuildEmpowermentPrompt(in Input) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\n")
	writeContext(&b, in, false)
	b.WriteString("\nThe following is the information on the Crisis Support Resources page on this site:\n")
	b.WriteString(resources.CrisisText())
	b.WriteString("\n\n")
	b.WriteString(in.PreviousResponses)
	b.WriteString(focus)
	b.WriteString("\n\n")
	for _, s := range Sections {
		b.WriteString(s.StartMarker())
		b.WriteString("\n")
		for _, line := range sectionGuidance[s] {
			b.WriteString("- ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString(s.EndMarker())
		b.WriteString("\n\n")
	}
	b.WriteString(guidelines)
	b.WriteString("\n")
	return b.String()
}

const agentInstructions = `As an AI agent for HerSpace, please respond with encouraging and supportive messages.
Remember, users may feel vulnerable while filling out this form, so it's important to be empathetic and understanding.
Ignore the empty context.
Don't mention the type of the response, just respond as a friend would.

If at any point a user feels uneasy about sharing their thoughts or experiences, reassure them that it's perfectly okay to take a break or stop the process.
Encourage them to explore "Crisis Support Resources" and "Therapy Location Finder" on this site if they need to step away for a moment.
If the situation is about violence, abuse, crisis, crime, or other serious issues, encourage them to explore the "Crisis Support Resources" and "Therapy Location Finder" pages and seek professional help.
Your role is to create a safe and supportive environment for their journey.

You're a HerSpace Agent, so don't include placeholders like "[your name]" or "[link]" in your response because you're not writing a template for others.`

// BuildAgentPrompt returns the prompt for the short supportive message offered on a step.
// extra describes what the user just shared.
func BuildAgentPrompt(in Input, extra string) string {
	var b strings.Builder
	b.WriteString("The user described their situation as:\n")
	writeContext(&b, in, true)
	b.WriteString("\nPrevious Agent Interactions:\n")
	b.WriteString(in.PreviousResponses)
	b.WriteString("\n")
	b.WriteString(resources.CrisisText())
	b.WriteString("\n\nExtra Prompt:\n")
	b.WriteString(extra)
	b.WriteString("\n\n")
	b.WriteString(agentInstructions)
	b.WriteString("\n")
	return b.String()
}

func writeContext(b *strings.Builder, in Input, separateIntensity bool) {
	b.WriteString("Context:\n")
	fmt.Fprintf(b, "- Category: %s\n", in.Category)
	fmt.Fprintf(b, "- Situation: %s\n", in.Situation)
	fmt.Fprintf(b, "- Current Thoughts: %s\n", strings.Join(in.Thoughts, ", "))
	if separateIntensity {
		fmt.Fprintf(b, "- Emotional State: %s\n", in.Emotions)
		fmt.Fprintf(b, "- Emotion Intensity: %s\n", strings.TrimSpace(in.EmotionIntensity))
	} else {
		fmt.Fprintf(b, "- Emotional State: %s (Intensity: %s)\n", in.Emotions, strings.TrimSpace(in.EmotionIntensity))
	}
	fmt.Fprintf(b, "- Available Support: %s\n", in.SupportSystem)
	fmt.Fprintf(b, "- Personal Strengths: %s\n", in.Strengths)
	fmt.Fprintf(b, "- Goal: %s\n", in.Goal)
	fmt.Fprintf(b, "- Additional Notes: %s\n", in.ExtraNotes)
}
