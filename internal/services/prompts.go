package services

// Prompt templates. Structured prompts spell out the exact JSON shape so
// backends without a native JSON mode still comply.

const chatPrompt = `Generate a comprehensive and informative answer (but concise) for a given question solely based on the provided web Search Results (URL, Page Title, Summary). You must only use information from the provided search results. Use an unbiased and journalistic tone.

You must cite the answer using [number] notation. You must cite sentences with their relevant citation number. Cite every part of the answer.
Place citations at the end of the sentence. You can do multiple citations in a row with the format [number1][number2].

Only cite the most relevant results that answer the question accurately. If different results refer to different entities with the same name, write separate answers for each entity.

ONLY cite inline.
DO NOT include a reference section, DO NOT include URLs.
DO NOT repeat the question.

The response should be in Markdown format. Include bullets for readability if necessary.

<context>
%s
</context>
---------------------
Question: %s
Answer (without repeating the question): `

const historyQueryRephrase = `Given the following conversation and a follow up input, rephrase the follow up into a SHORT, standalone query (which captures any relevant context from previous messages).
IMPORTANT: EDIT THE QUERY TO BE CONCISE. Respond with a short, compressed phrase.
If there is a clear change in topic, disregard the previous messages.
Strip out any information that is not relevant for the retrieval task.

Chat History:
%s

Follow Up Input: %s
Standalone question (Respond with only the short combined query):`

const relatedQuestionPrompt = `You are an expert at predicting what questions a user might ask based on the information in a search result. Given a question and search results, generate a list of 3 related questions to the given question. Build upon the original question and information from the search results. Make sure the 3 questions are NOT directly answered by the search results. There must be EXACTLY 3 questions. Keep the questions short and concise.

Respond ONLY with a JSON object of this exact shape: {"related_queries": ["question 1", "question 2", "question 3"]}

Original Question: %s
Search Results: %s`

const queryPlanPrompt = `You are an expert at planning web research. Break the query below into a plan of at most 4 steps. Each step is either a web search for one aspect of the query, or the final step, which summarizes the findings of the previous steps into an answer.

Each step has a unique integer "id", a short "step" description, and "dependencies": the ids of earlier steps whose results it builds on. The first step must have no dependencies. The last step must be the summarize step and must depend on the search steps it summarizes. Keep the plan as short as the query allows; a simple query needs only one search step and a summarize step.

Respond ONLY with a JSON object of this exact shape: {"steps": [{"id": 0, "step": "description", "dependencies": []}]}

Query: %s`

const searchQueryPrompt = `You are an expert at turning a research step into web search queries. Given the user's original query, the current step of the research plan, and context gathered by earlier steps, generate 1 to 3 concise search queries that complete the current step. Do not repeat searches whose answers already appear in the context.

Respond ONLY with a JSON object of this exact shape: {"search_queries": ["query 1"]}

Original query: %s
Current step: %s
Context from earlier steps:
%s`
