package scoring

import "fmt"

// PromptWeights is the weighting guidance given to the model, in percent.
type PromptWeights struct {
	Accuracy      int
	Pronunciation int
	Fluency       int
}

// DefaultPromptWeights returns the 70/20/10 guidance.
func DefaultPromptWeights() PromptWeights {
	return PromptWeights{Accuracy: 70, Pronunciation: 20, Fluency: 10}
}

const systemInstruction = "Você é um avaliador de pronúncia rigoroso e didático. " +
	"Responda sempre com um único objeto JSON válido, sem markdown e sem texto adicional."

const promptTemplate = `Avalie a pronúncia de um aluno no idioma %[1]s.

Texto esperado: %[2]q
Transcrição do que o aluno falou: %[3]q

Critérios de pontuação (0 a 100):
- Precisão em relação ao texto esperado: %[4]d%%
- Sinais de erros de pronúncia na transcrição (trocas, omissões ou acréscimos de sons): %[5]d%%
- Fluência e clareza: %[6]d%%
Se a transcrição for idêntica ao texto esperado, a nota é 100 e "match" é true.

Responda exatamente neste formato JSON, sem nenhum outro texto:
{
  "score": <número de 0 a 100>,
  "match": <true ou false>,
  "feedback": "<explicação curta e pedagógica>",
  "errors": ["<erro específico>"],
  "suggestions": ["<dica concreta para melhorar>"],
  "highlights": {
    "correct": ["<palavras pronunciadas corretamente>"],
    "incorrect": ["<palavras pronunciadas incorretamente>"]
  }
}`

func buildPrompt(expected, predicted, language string, w PromptWeights) string {
	return fmt.Sprintf(promptTemplate, language, expected, predicted, w.Accuracy, w.Pronunciation, w.Fluency)
}
